package dto

import "time"

type GuarantorDto struct {
	Name                *string `json:"name"`
	Phone               *string `json:"phone"`
	Address             *string `json:"address,omitempty"`
	Relation            *string `json:"relation,omitempty"`
	IdentityDocumentURL *string `json:"identity_document_url"`
}

type CompanyVerifyRequestDto struct {
	Guarantors []GuarantorDto `json:"guarantors"`
}

type RejectRequestDto struct {
	Reason *string `json:"reason"`
}

type DocumentUpdateRequestDto struct {
	IdentityDocumentURL *string `json:"identity_document_url"`
}

type GuarantorResponseDto struct {
	Id                  int64  `json:"id"`
	Name                string `json:"name"`
	Phone               string `json:"phone"`
	Address             string `json:"address,omitempty"`
	Relation            string `json:"relation,omitempty"`
	IdentityDocumentURL string `json:"identity_document_url"`
}

type DriverResponseDto struct {
	Id                  int64   `json:"id"`
	Username            string  `json:"username"`
	FullName            string  `json:"full_name"`
	Phone               string  `json:"phone"`
	Address             string  `json:"address,omitempty"`
	VehicleType         string  `json:"vehicle_type,omitempty"`
	CompanyId           *int64  `json:"company_id,omitempty"`
	CompanyName         string  `json:"company_name,omitempty"`
	Status              string  `json:"status"`
	Matricule           string  `json:"matricule,omitempty"`
	IdentityDocumentURL string  `json:"identity_document_url,omitempty"`
	RejectionReason     string  `json:"rejection_reason,omitempty"`
	Rating              float64 `json:"rating"`
}

// DossierDto is the full onboarding view of one driver: the account plus its
// guarantors.
type DossierDto struct {
	Driver     DriverResponseDto      `json:"driver"`
	Guarantors []GuarantorResponseDto `json:"guarantors"`
}

type PageMetaDto struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type PaginatedDriversDto struct {
	Drivers []DriverResponseDto `json:"drivers"`
	Meta    PageMetaDto         `json:"meta"`
}

type NoteRequestDto struct {
	Value   *int    `json:"value"`
	Comment *string `json:"comment,omitempty"`
}

type NoteResponseDto struct {
	Id        int64     `json:"id"`
	DriverId  int64     `json:"driver_id"`
	AuthorId  int64     `json:"author_id"`
	Value     int       `json:"value"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
