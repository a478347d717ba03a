package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/advisor-x/internal/advisor/store"
	"github.com/kart-io/advisor-x/internal/model"
)

// PriceFetcher looks up the listed price for a model.
type PriceFetcher interface {
	FetchMRP(ctx context.Context, modelID string) (any, error)
}

// Reconciler overlays catalog ground truth onto generated recommendations.
// The model may hallucinate URLs, ids, and prices; the index and pricing API
// always win.
type Reconciler struct {
	store  store.VectorStore
	prices PriceFetcher
}

// NewReconciler creates a new Reconciler.
func NewReconciler(s store.VectorStore, prices PriceFetcher) *Reconciler {
	return &Reconciler{store: s, prices: prices}
}

// Reconcile enriches each recommendation in place. Records are processed
// sequentially; one record's failure never aborts the rest.
func (r *Reconciler) Reconcile(ctx context.Context, recs []model.ProductRecommendation) {
	for i := range recs {
		r.reconcileOne(ctx, &recs[i])
	}
}

func (r *Reconciler) reconcileOne(ctx context.Context, rec *model.ProductRecommendation) {
	// Material id is the stronger key: a hit rewrites the canonical product
	// id as well, and the product id lookup is skipped.
	matched := false
	if rec.MaterialID != "" {
		meta, err := r.store.LookupByMaterialID(ctx, rec.MaterialID)
		if err != nil {
			logger.Warnw("material lookup failed", "material_id", rec.MaterialID, "error", err.Error())
		} else if meta != nil {
			matched = true
			if meta.AmazonURL != "" {
				rec.AmazonURL = meta.AmazonURL
			}
			if meta.ProductID != "" {
				rec.ProductID = meta.ProductID
			}
		}
	}

	if !matched && rec.ProductID != "" {
		meta, err := r.store.LookupByProductID(ctx, rec.ProductID)
		if err != nil {
			logger.Warnw("product lookup failed", "product_id", rec.ProductID, "error", err.Error())
		} else if meta != nil && meta.AmazonURL != "" {
			rec.AmazonURL = meta.AmazonURL
		}
	}

	r.reconcilePrice(ctx, rec)
}

func (r *Reconciler) reconcilePrice(ctx context.Context, rec *model.ProductRecommendation) {
	price, err := r.prices.FetchMRP(ctx, rec.ProductID)
	if err != nil {
		logger.Warnw("price fetch failed", "product_id", rec.ProductID, "error", err.Error())
		rec.Price = nil
		return
	}
	rec.Price = price
}
