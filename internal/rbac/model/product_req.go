package model

import "strings"

type ProductReq struct {
	Name  string  `json:"name" validate:"required,min=1,max=200"`
	Price float64 `json:"price" validate:"gte=0"`
	Image string  `json:"image" validate:"omitempty,max=2048"`
}

func (r *ProductReq) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Image = strings.TrimSpace(r.Image)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

type ProductList struct {
	Results    []*Product `json:"results"`
	Pagination Pagination `json:"pagination"`
}

// SearchHit is one product returned by the search index.
type SearchHit struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Image     string   `json:"image,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

type SearchResult struct {
	Results    []*SearchHit `json:"results"`
	Pagination Pagination   `json:"pagination"`
}
