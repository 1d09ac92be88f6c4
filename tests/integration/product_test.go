//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := request(t, http.MethodGet, "/api/product", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != seededProducts {
		t.Fatalf("expected %d products, got %d", seededProducts, len(products))
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := request(t, http.MethodGet, "/api/product", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)

	var albarracin *productResponse
	for i := range products {
		if products[i].ID == 1 {
			albarracin = &products[i]
			break
		}
	}

	if albarracin == nil {
		t.Fatal("product with ID 1 not found")
	}
	if albarracin.Name != "Albarracín" {
		t.Errorf("name: got %q, want %q", albarracin.Name, "Albarracín")
	}
	if albarracin.Price != "35.50" {
		t.Errorf("price: got %q, want 35.50", albarracin.Price)
	}
	if albarracin.Category != "Aragón" {
		t.Errorf("category: got %q, want %q", albarracin.Category, "Aragón")
	}
	if albarracin.Image.Thumbnail == "" {
		t.Error("image.thumbnail is empty")
	}
	if albarracin.Image.Desktop == "" {
		t.Error("image.desktop is empty")
	}
}

func TestGetProduct(t *testing.T) {
	resp := request(t, http.MethodGet, "/api/product/2", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	product := decodeJSON[productResponse](t, resp)
	if product.ID != 2 {
		t.Errorf("id: got %d, want 2", product.ID)
	}
	if product.Price != "29.90" {
		t.Errorf("price: got %q, want 29.90", product.Price)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := request(t, http.MethodGet, "/api/product/999", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}

func TestGetProduct_InvalidID(t *testing.T) {
	resp := request(t, http.MethodGet, "/api/product/abc", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
