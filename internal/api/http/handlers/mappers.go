package handlers

import (
	"github.com/spec-kit/legal-aid-service/internal/api/dto"
	"github.com/spec-kit/legal-aid-service/internal/domain"
)

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Phone:             u.Phone,
		RoleID:            u.RoleID,
		RoleName:          u.RoleName,
		BaseRole:          u.Role,
		Permissions:       u.Permissions,
		OfficeID:          u.OfficeID,
		Kebele:            u.Kebele,
		ResidencyVerified: u.ResidencyVerified,
		Status:            u.Status,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func roleResponse(r *domain.Role) dto.RoleResponse {
	perms := r.Permissions
	if perms == nil {
		perms = []domain.Permission{}
	}
	return dto.RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		BaseRole:    r.BaseRole,
		Description: r.Description,
		Permissions: perms,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func officeResponse(o *domain.Office) dto.OfficeResponse {
	return dto.OfficeResponse{
		ID:        o.ID,
		Code:      o.Code,
		Name:      o.Name,
		Region:    o.Region,
		Zone:      o.Zone,
		Woreda:    o.Woreda,
		Kebele:    o.Kebele,
		Address:   o.Address,
		Phone:     o.Phone,
		IsActive:  o.IsActive,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func caseResponse(c *domain.Case) dto.CaseResponse {
	return dto.CaseResponse{
		ID:            c.ID,
		CaseNumber:    c.CaseNumber,
		ClientID:      c.ClientID,
		OfficeID:      c.OfficeID,
		CoordinatorID: c.CoordinatorID,
		LawyerID:      c.LawyerID,
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		Priority:      c.Priority,
		Status:        c.Status,
		Kebele:        c.Kebele,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		ClosedAt:      c.ClosedAt,
	}
}

func noteResponse(n *domain.CaseNote) dto.CaseNoteResponse {
	return dto.CaseNoteResponse{
		ID:         n.ID,
		CaseID:     n.CaseID,
		AuthorID:   n.AuthorID,
		Visibility: n.Visibility,
		Body:       n.Body,
		CreatedAt:  n.CreatedAt,
	}
}

func historyResponse(h *domain.CaseHistory) dto.CaseHistoryResponse {
	return dto.CaseHistoryResponse{
		ID:          h.ID,
		ChangeType:  h.ChangeType,
		ChangedByID: h.ChangedByID,
		OldValue:    h.OldValue,
		NewValue:    h.NewValue,
		CreatedAt:   h.CreatedAt,
	}
}

func assignmentResponse(a *domain.CaseAssignment) dto.CaseAssignmentResponse {
	return dto.CaseAssignmentResponse{
		ID:            a.ID,
		CaseID:        a.CaseID,
		CoordinatorID: a.CoordinatorID,
		OfficeID:      a.OfficeID,
		Status:        a.Status,
		AssignedAt:    a.AssignedAt,
		CompletedAt:   a.CompletedAt,
	}
}

func appealResponse(a *domain.Appeal) dto.AppealResponse {
	return dto.AppealResponse{
		ID:          a.ID,
		CaseID:      a.CaseID,
		LawyerID:    a.LawyerID,
		Title:       a.Title,
		Grounds:     a.Grounds,
		Court:       a.Court,
		HearingDate: a.HearingDate,
		Status:      a.Status,
		Decision:    a.Decision,
		DecidedAt:   a.DecidedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func documentResponse(d *domain.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:         d.ID,
		CaseID:     d.CaseID,
		UploadedBy: d.UploadedBy,
		FileName:   d.FileName,
		MimeType:   d.MimeType,
		SizeBytes:  d.SizeBytes,
		Checksum:   d.Checksum,
		Status:     d.Status,
		VerifiedBy: d.VerifiedBy,
		VerifiedAt: d.VerifiedAt,
		ReviewNote: d.ReviewNote,
		URL:        "/api/v1/documents/" + d.ID + "/download",
		CreatedAt:  d.CreatedAt,
	}
}

func appointmentResponse(a *domain.Appointment) dto.AppointmentResponse {
	return dto.AppointmentResponse{
		ID:             a.ID,
		CaseID:         a.CaseID,
		ClientID:       a.ClientID,
		StaffID:        a.StaffID,
		StartsAt:       a.StartsAt,
		EndsAt:         a.EndsAt,
		Location:       a.Location,
		Purpose:        a.Purpose,
		Status:         a.Status,
		ReminderSentAt: a.ReminderSentAt,
		CreatedBy:      a.CreatedBy,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func paymentResponse(p *domain.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          p.ID,
		CaseID:      p.CaseID,
		ClientID:    p.ClientID,
		OfficeID:    p.OfficeID,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Description: p.Description,
		Method:      p.Method,
		Reference:   p.Reference,
		Status:      p.Status,
		PaidAt:      p.PaidAt,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Body:       n.Body,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Read:       n.ReadAt != nil,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}
