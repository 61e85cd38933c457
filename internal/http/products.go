package http

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"storefront/admin/internal/clients"
	"storefront/admin/internal/events"
	"storefront/admin/internal/inventory"
	"storefront/admin/internal/validation"
)

const maxUploadBytes = 32 << 20

var productFormFields = []string{
	"title", "brand", "description",
	"color", "weight", "dimension", "batteryType", "batteryCapacity",
	"ramCapacity", "romCapacity", "screenSize", "connectionPort",
	"detailedReview", "powerfulPerformance", "categoryId", "active", "inventories",
}

type productResponse struct {
	clients.Product
	Aggregates inventory.Aggregates `json:"aggregates"`
}

// imageResult is the outcome of one file in a multi-image upload.
type imageResult struct {
	Filename string         `json:"filename"`
	Image    *clients.Image `json:"image,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := s.backend.ListProducts(r.Context(), parseListQuery(r))
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_product_id")
		return
	}
	product, err := s.backend.GetProduct(r.Context(), id)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: product, Aggregates: inventory.Summarize(product.Inventories)})
}

func (s *Server) handleCreateProductForm(w http.ResponseWriter, _ *http.Request) {
	defaults := clients.ProductInput{Active: true, Inventories: []inventory.Payload{}}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fields":   productFormFields,
		"defaults": defaults,
	})
}

// handleCreateProduct accepts either a JSON product or a multipart form with
// the product JSON in "product" and images in "file". Images are uploaded
// after the product exists; a failed image does not undo the product or the
// other images.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var (
		in    clients.ProductInput
		files []*multipart.FileHeader
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		decoder := json.NewDecoder(strings.NewReader(r.FormValue("product")))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		files = r.MultipartForm.File["file"]
	} else if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(in); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_request", validation.Message(err))
		return
	}

	product, err := s.backend.CreateProduct(r.Context(), in)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	s.emit(r, events.ProductCreated, "product", product.ID, map[string]interface{}{"title": in.Title})

	results := s.uploadImages(r, product.ID, files)
	status := http.StatusCreated
	if failed(results) {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]interface{}{
		"product": product,
		"images":  results,
	})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_product_id")
		return
	}
	var in clients.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(in); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_request", validation.Message(err))
		return
	}
	product, err := s.backend.UpdateProduct(r.Context(), id, in)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	s.emit(r, events.ProductUpdated, "product", id, nil)
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_product_id")
		return
	}
	if err := s.backend.DeleteProduct(r.Context(), id); err != nil {
		s.backendError(w, r, err)
		return
	}
	s.drafts.Discard(s.sessionID(r), id)
	s.emit(r, events.ProductDeleted, "product", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "productId": id})
}

func (s *Server) handleToggleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_product_id")
		return
	}
	if err := s.backend.ToggleProductActive(r.Context(), id); err != nil {
		s.backendError(w, r, err)
		return
	}
	s.emit(r, events.ProductToggled, "product", id, nil)
	product, err := s.backend.GetProduct(r.Context(), id)
	if err != nil {
		s.backendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: product, Aggregates: inventory.Summarize(product.Inventories)})
}

func (s *Server) handleUploadImages(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_product_id")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "file_required")
		return
	}
	results := s.uploadImages(r, id, files)
	status := http.StatusOK
	if failed(results) {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]interface{}{"productId": id, "images": results})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "imageId")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_image_id")
		return
	}
	if err := s.backend.DeleteProductImage(r.Context(), id); err != nil {
		s.backendError(w, r, err)
		return
	}
	s.emit(r, events.ProductImageRemoved, "image", id, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "imageId": id})
}

// uploadImages sends each file on its own and keeps going after a failure.
func (s *Server) uploadImages(r *http.Request, productID int64, files []*multipart.FileHeader) []imageResult {
	results := make([]imageResult, 0, len(files))
	for _, header := range files {
		result := imageResult{Filename: header.Filename}
		file, err := header.Open()
		if err != nil {
			result.Error = clients.DefaultMessage
			results = append(results, result)
			continue
		}
		image, err := s.backend.UploadProductImage(r.Context(), productID, header.Filename, file)
		_ = file.Close()
		if err != nil {
			s.log.WithError(err).WithField("product_id", productID).Warn("image upload failed")
			result.Error = clients.MessageOf(err)
		} else {
			result.Image = &image
			s.emit(r, events.ProductImageAdded, "product", productID, map[string]interface{}{"imageId": image.ID})
		}
		results = append(results, result)
	}
	return results
}

func failed(results []imageResult) bool {
	for _, result := range results {
		if result.Error != "" {
			return true
		}
	}
	return false
}
