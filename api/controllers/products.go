package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/perfuman/storefront-backend/api/responses"
	"github.com/perfuman/storefront-backend/api/validators"
	productsvc "github.com/perfuman/storefront-backend/internal/products"
	"github.com/perfuman/storefront-backend/pkg/db/models"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
	"github.com/perfuman/storefront-backend/pkg/logger"
	"github.com/perfuman/storefront-backend/pkg/pagination"
)

// ListProducts returns a cursor-paginated page of the active catalog.
func ListProducts(repo productsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		page, err := repo.List(r.Context(), params, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductListResponse(page))
	}
}

// GetProduct returns a single catalog row by id.
func GetProduct(repo productsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product repository unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := repo.FindByID(r.Context(), id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !product.Active {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type productListResponse struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func newProductListResponse(page *productsvc.ProductList) productListResponse {
	if page == nil {
		return productListResponse{Products: []models.Product{}}
	}
	products := page.Products
	if products == nil {
		products = []models.Product{}
	}
	return productListResponse{Products: products, NextCursor: page.NextCursor}
}
