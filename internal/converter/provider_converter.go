package converter

import (
	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/domain/entity"
)

// ProviderToResponse converts a Provider entity to ProviderResponse DTO.
// Internal document URLs (aadhaar, pancard) are not exposed here.
func ProviderToResponse(provider *entity.Provider) *dto.ProviderResponse {
	if provider == nil {
		return nil
	}

	return &dto.ProviderResponse{
		ID:              provider.ID,
		Name:            provider.Name,
		Email:           provider.Email,
		Phone:           provider.Phone,
		Service:         provider.Service,
		Experience:      provider.Experience,
		Location:        provider.Location,
		PhotoURL:        provider.PhotoURL,
		IsOnline:        provider.IsOnline,
		EmailVerified:   provider.EmailVerified,
		MembershipPaid:  provider.MembershipPaid,
		ApprovedByAdmin: provider.ApprovedByAdmin,
		LastSeen:        provider.LastSeen,
		CreatedAt:       provider.CreatedAt,
	}
}

// ProvidersToResponses converts a slice of Provider entities
func ProvidersToResponses(providers []entity.Provider) []dto.ProviderResponse {
	responses := make([]dto.ProviderResponse, len(providers))
	for i, provider := range providers {
		resp := ProviderToResponse(&provider)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
