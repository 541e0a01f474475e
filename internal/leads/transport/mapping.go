package transport

import "salescrm_backend/internal/leads/domain"

func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                  l.ID,
		CustomerName:        l.CustomerName,
		CustomerPhone:       l.CustomerPhone,
		CustomerWechat:      l.CustomerWechat,
		Address:             l.Address,
		Notes:               l.Notes,
		ChannelID:           l.ChannelID,
		ContactID:           l.ContactID,
		Source:              l.Source,
		IntentLevel:         l.IntentLevel,
		Status:              l.Status.String(),
		AssignedSalesID:     l.AssignedSalesID,
		Score:               l.Score,
		EstimatedAmount:     l.EstimatedAmount,
		VoidReason:          l.VoidReason,
		ConvertedCustomerID: l.ConvertedCustomerID,
		LastActivityAt:      l.LastActivityAt,
		NextFollowupAt:      l.NextFollowupAt,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

func ToLeadResponses(items []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(items))
	for _, l := range items {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

func ToActivityResponse(a domain.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:              a.ID,
		LeadID:          a.LeadID,
		Type:            a.Type,
		Content:         a.Content,
		CreatedByUserID: a.CreatedByUserID,
		NextFollowupAt:  a.NextFollowupAt,
		CreatedAt:       a.CreatedAt,
	}
	if a.StatusOverride != nil {
		s := a.StatusOverride.String()
		resp.StatusOverride = &s
	}
	return resp
}

func ToActivityResponses(items []domain.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToActivityResponse(a))
	}
	return out
}
