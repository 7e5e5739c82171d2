// File: internal/dto/http_error.go
package dto

// HTTPError 全域錯誤響應模型
// swagger:model dto.HTTPError
type HTTPError struct {
	// message 錯誤描述
	Message string `json:"message"`
}

// ValidationError 欄位驗證失敗時回傳每個欄位的原因
// swagger:model dto.ValidationError
type ValidationError struct {
	Message string            `json:"message" example:"validation failed"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// swagger:model dto.MessageResponse
type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}
