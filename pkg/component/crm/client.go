// Package crm provides the client for the CRM customer-details API.
package crm

import (
	"context"
	"fmt"

	crmopts "github.com/kart-io/advisor-x/pkg/options/crm"
	"github.com/kart-io/advisor-x/pkg/utils/httpclient"
)

// requestColumns lists the columns requested per CRM table. The upstream API
// only returns columns that are asked for explicitly.
var requestColumns = map[string][]string{
	"crm_init":         {"zzpurchase_date", "zzinstall_date", "zzpost_code1", "city1", "zz0010", "zz0012", "zzsubcat", "ZZPROD_DESC", "zzr3ser_no", "warrantydesc", "warranty_sdate", "warranty_edate"},
	"crm_allcall":      {"Ticket", "CallType", "Status", "Product", "PostingDate", "ClosedTime", "ServiceType", "MachineStatus", "Medium", "Origin"},
	"cust_likes":       {"textbox", "timestamp"},
	"sap_spu":          {"MATDES", "CRMTICKET", "MACHSTAT", "SPARE", "QUANTITY"},
	"crm_amccontracts": {"Srno", "Amctype", "Cont_strt_dat", "Cont_end_dat", "zzmat_grp", "warconv", "price"},
}

// Installation is one row of the crm_init table.
type Installation struct {
	ProductDesc   string `json:"ZZPROD_DESC"`
	InstallDate   string `json:"zzinstall_date"`
	City          string `json:"city1"`
	SerialNo      string `json:"zzr3ser_no"`
	WarrantyDesc  string `json:"warrantydesc"`
	WarrantyStart string `json:"warranty_sdate"`
	WarrantyEnd   string `json:"warranty_edate"`
}

// ServiceCall is one row of the crm_allcall table.
type ServiceCall struct {
	Ticket        string `json:"Ticket"`
	Product       string `json:"Product"`
	Status        string `json:"Status"`
	PostingDate   string `json:"PostingDate"`
	MachineStatus string `json:"MachineStatus"`
}

// Note is one row of the cust_likes table.
type Note struct {
	Text      string `json:"textbox"`
	Timestamp string `json:"timestamp"`
}

// AMCContract is one row of the crm_amccontracts table.
type AMCContract struct {
	Type          string `json:"Amctype"`
	ContractStart string `json:"Cont_strt_dat"`
	ContractEnd   string `json:"Cont_end_dat"`
	MaterialGroup string `json:"zzmat_grp"`
	Price         string `json:"price"`
}

// SpareUsage is one row of the sap_spu table.
type SpareUsage struct {
	Spare         string `json:"SPARE"`
	Quantity      string `json:"QUANTITY"`
	Ticket        string `json:"CRMTICKET"`
	MaterialDesc  string `json:"MATDES"`
	MachineStatus string `json:"MACHSTAT"`
}

// CustomerDetails is the CRM response across all requested tables.
type CustomerDetails struct {
	Installations []Installation `json:"crm_init"`
	ServiceCalls  []ServiceCall  `json:"crm_allcall"`
	Notes         []Note         `json:"cust_likes"`
	AMCContracts  []AMCContract  `json:"crm_amccontracts"`
	SpareUsages   []SpareUsage   `json:"sap_spu"`
}

type detailsRequest struct {
	Customer       string              `json:"customer"`
	RequestColumns map[string][]string `json:"request_columns"`
}

// Client calls the CRM customer-details endpoint.
type Client struct {
	opts   *crmopts.Options
	client *httpclient.Client
}

// New creates a new CRM client.
func New(opts *crmopts.Options) *Client {
	return &Client{
		opts:   opts,
		client: httpclient.NewClient(opts.Timeout, opts.MaxRetries),
	}
}

// FetchDetails retrieves the customer's records across all five CRM tables.
func (c *Client) FetchDetails(ctx context.Context, customerID string) (*CustomerDetails, error) {
	payload := detailsRequest{
		Customer:       customerID,
		RequestColumns: requestColumns,
	}

	var details CustomerDetails
	if err := c.client.PostJSON(ctx, c.opts.URL, payload, &details); err != nil {
		return nil, fmt.Errorf("crm request failed: %w", err)
	}

	return &details, nil
}
