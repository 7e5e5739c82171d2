// File: internal/api/post_request.go
package api

// swagger:model api.PostRequest
type PostRequest struct {
	Title string `json:"title" form:"title" validate:"required,max=200" example:"Hello"`
	Body  string `json:"body" form:"body" validate:"max=20000" example:"First post"`
}
