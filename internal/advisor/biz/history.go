package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/advisor-x/pkg/component/crm"
)

// Sentinel strings the downstream summarizer and generator key off. Do not
// change their wording.
const (
	NoHistoryFound            = "No customer history found."
	NoSignificantHistoryFound = "No significant customer history found."
)

// HistoryClient fetches raw customer records from the CRM.
type HistoryClient interface {
	FetchDetails(ctx context.Context, customerID string) (*crm.CustomerDetails, error)
}

// HistoryFetcher turns CRM records into the line-per-record text block the
// LLM consumes.
type HistoryFetcher struct {
	client HistoryClient
}

// NewHistoryFetcher creates a new HistoryFetcher.
func NewHistoryFetcher(client HistoryClient) *HistoryFetcher {
	return &HistoryFetcher{client: client}
}

// FetchHistory returns the customer's history as text. It never fails: any
// CRM error collapses to NoHistoryFound, and an empty record set yields
// NoSignificantHistoryFound.
func (f *HistoryFetcher) FetchHistory(ctx context.Context, customerID string) string {
	details, err := f.client.FetchDetails(ctx, customerID)
	if err != nil {
		logger.Warnw("crm fetch failed, continuing without history",
			"customer_id", customerID, "error", err.Error())
		return NoHistoryFound
	}

	var parts []string

	for _, item := range details.Installations {
		parts = append(parts, fmt.Sprintf(
			"Product: %s, Installed on: %s, City: %s, Serial: %s, Warranty: %s (%s to %s)",
			item.ProductDesc, item.InstallDate, item.City, item.SerialNo,
			item.WarrantyDesc, item.WarrantyStart, item.WarrantyEnd))
	}

	for _, call := range details.ServiceCalls {
		parts = append(parts, fmt.Sprintf(
			"Service Ticket %s for %s was %s on %s. Machine Status: %s",
			call.Ticket, call.Product, call.Status, call.PostingDate, call.MachineStatus))
	}

	for _, note := range details.Notes {
		parts = append(parts, fmt.Sprintf("Customer mentioned: '%s' on %s", note.Text, note.Timestamp))
	}

	for _, amc := range details.AMCContracts {
		parts = append(parts, fmt.Sprintf(
			"AMC Type: %s, Valid from %s to %s, Group: %s, Price: %s",
			amc.Type, amc.ContractStart, amc.ContractEnd, amc.MaterialGroup, amc.Price))
	}

	for _, spu := range details.SpareUsages {
		parts = append(parts, fmt.Sprintf(
			"Spare Used: %s (Qty: %s) in ticket %s for %s. Machine Status: %s",
			spu.Spare, spu.Quantity, spu.Ticket, spu.MaterialDesc, spu.MachineStatus))
	}

	if len(parts) == 0 {
		return NoSignificantHistoryFound
	}
	return strings.Join(parts, "\n")
}
