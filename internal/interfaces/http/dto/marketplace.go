package dto

// BulkPublishRequest asks for many items to be published at once
type BulkPublishRequest struct {
	Items  []string `json:"items" binding:"required,min=1,max=200,dive,required,itemcode"`
	Action string   `json:"action" binding:"required,oneof=create update"`
}

// PublishQuery holds the publish endpoint query parameters
type PublishQuery struct {
	Inline bool `form:"inline"`
}

// SuggestionQuery holds the category suggestion query parameters
type SuggestionQuery struct {
	Name string `form:"name" binding:"required,max=255"`
}

// ShopQuery selects the shop account an operator call acts on
type ShopQuery struct {
	Shop string `form:"shop" binding:"omitempty,max=140"`
}
