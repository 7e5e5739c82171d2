// File: internal/dto/form_response.go
package dto

// FormField 描述表單欄位，前端依此渲染
type FormField struct {
	Name     string `json:"name" example:"email"`
	Type     string `json:"type" example:"email"`
	Required bool   `json:"required" example:"true"`
	Value    string `json:"value,omitempty"`
}

// FormResponse 取代 HTML 表單頁面
// swagger:model dto.FormResponse
type FormResponse struct {
	Action string      `json:"action" example:"/signin"`
	Method string      `json:"method" example:"POST"`
	Fields []FormField `json:"fields"`
}

// swagger:model dto.PageResponse
type PageResponse struct {
	Page  string `json:"page" example:"about"`
	Title string `json:"title" example:"About"`
	Body  string `json:"body"`
}
