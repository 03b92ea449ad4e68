package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/auth/jwt"
	"swapyard/internal/pkg/errs"
	"swapyard/internal/pkg/logx"
	"swapyard/internal/pkg/randx"
	"swapyard/internal/pkg/req"
	"swapyard/internal/pkg/resp"
)

const (
	// MaxPhotoBytes caps a single listing photo upload.
	MaxPhotoBytes = 10 << 20

	// MaxPhotosPerListing caps the photo list on a single listing.
	MaxPhotosPerListing = 8

	// PresignedURLDuration is how long a presigned photo upload URL stays valid.
	PresignedURLDuration = 15 * time.Minute
)

// photoMimeTypes whitelists the image types accepted for listing photos,
// keyed by file extension.
var photoMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

type CreateProductInput struct {
	Name      string   `json:"name"`
	Photos    []string `json:"photos"`
	Category  string   `json:"category"`
	Condition string   `json:"condition"`
	Price     float64  `json:"price"`
	Address   string   `json:"address"`
}

// HandleCreateProduct creates a new listing owned by the authenticated user.
// Photo entries may be object keys from the presign flow; they are rewritten
// to public URLs before storage.
func HandleCreateProduct(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input CreateProductInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Name = strings.TrimSpace(input.Name)
		if input.Name == "" || input.Price <= 0 ||
			len(input.Photos) == 0 || len(input.Photos) > MaxPhotosPerListing {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		photos := make([]string, 0, len(input.Photos))
		for _, photo := range input.Photos {
			if randx.IsPhotoKey(photo) {
				photo = deps.StorageService.PublicURL(photo)
			}
			photos = append(photos, photo)
		}

		product, err := deps.Store.CreateProduct(r.Context(), market.NewProduct{
			SellerID:  identity.UserID,
			Name:      input.Name,
			Photos:    photos,
			Category:  strings.TrimSpace(input.Category),
			Condition: strings.TrimSpace(input.Condition),
			Price:     input.Price,
			Address:   strings.TrimSpace(input.Address),
		})
		if err != nil {
			logx.Error(err, "failed to create product", "seller_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"product": productView(product),
		})
	}
}

// HandleListProducts returns all available listings, newest first by default.
// sortBy accepts "date" or "price", order accepts "asc" or "desc".
func HandleListProducts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		products, err := deps.Store.ListAvailableProducts(r.Context(), query.Get("sortBy"), query.Get("order"))
		if err != nil {
			logx.Error(err, "failed to list products")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"products": productViews(products),
		})
	}
}

// HandleGetProduct returns a single listing by id.
func HandleGetProduct(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || productID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		product, err := deps.Store.GetProduct(r.Context(), productID)
		if err != nil {
			if errors.Is(err, market.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrProductNotFound))
				return
			}
			logx.Error(err, "failed to fetch product", "product_id", productID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"product": productView(product),
		})
	}
}

// HandleCategoryProducts returns the available listings in one category.
func HandleCategoryProducts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		if category == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		products, err := deps.Store.ListProductsByCategory(r.Context(), category)
		if err != nil {
			logx.Error(err, "failed to list category products", "category", category)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"products": productViews(products),
		})
	}
}

// HandleMarkSold lets the seller mark their own listing as sold, closing it
// to further purchase requests.
func HandleMarkSold(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || productID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Store.MarkProductSold(r.Context(), productID, identity.UserID); err != nil {
			if errors.Is(err, market.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrNotProductSeller))
				return
			}
			logx.Error(err, "failed to mark product sold", "product_id", productID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"status": market.StatusSold,
		})
	}
}

type PickupStatusInput struct {
	PickupStatus string `json:"pickup_status"`
}

// HandleUpdatePickupStatus lets the seller advance the pickup lifecycle of a
// sold listing.
func HandleUpdatePickupStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || productID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input PickupStatusInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !market.ValidPickupStatus(input.PickupStatus) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPickupStatus))
			return
		}

		if err := deps.Store.UpdatePickupStatus(r.Context(), productID, identity.UserID, input.PickupStatus); err != nil {
			if errors.Is(err, market.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrNotProductSeller))
				return
			}
			logx.Error(err, "failed to update pickup status", "product_id", productID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"pickup_status": input.PickupStatus,
		})
	}
}

// PresignPhotoInput defines the JSON input structure for generating a photo upload URL.
type PresignPhotoInput struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// HandlePresignPhotoURL generates a time-limited, pre-signed URL for
// uploading a listing photo. Only common image types are accepted.
func HandlePresignPhotoURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignPhotoInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.FileSize <= 0 || input.FileSize > MaxPhotoBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		fileExt := strings.ToLower(filepath.Ext(input.FileName))
		expectedMime, ok := photoMimeTypes[fileExt]
		if !ok || expectedMime != input.MimeType {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		photoKey := randx.PhotoKey(fileExt)

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			photoKey,
			input.MimeType,
			input.FileSize,
			PresignedURLDuration,
		)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"photoKey":     photoKey,
			"publicUrl":    deps.StorageService.PublicURL(photoKey),
		})
	}
}
