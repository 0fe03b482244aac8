package dto

// SweepResultDTO resultado agregado de un barrido.
type SweepResultDTO struct {
	Processed            int `json:"processed"`
	NotificationsCreated int `json:"notifications_created"`
	Failed               int `json:"failed"`
}

// SweepResponse respuesta de POST /api/admin/sweeps.
type SweepResponse struct {
	Leads        SweepResultDTO `json:"leads"`
	Quotes       SweepResultDTO `json:"quotes"`
	DraftsPurged int64          `json:"drafts_purged"`
}
