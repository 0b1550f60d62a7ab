package handlers

import (
	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/dto"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/service"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
)

func staffResponse(cal temporal.Calendar, v *service.StaffView) dto.StaffResponse {
	st := v.Staff
	resp := dto.StaffResponse{
		ID:                    st.ID,
		IDNo:                  st.IDNo,
		StaffName:             st.StaffName,
		CurrentArea:           st.CurrentArea,
		CurrentPost:           st.CurrentPost,
		Gender:                string(st.Gender),
		Birthday:              cal.FormatDate(st.Birthday),
		Nationality:           st.Nationality,
		JoiningDate:           cal.FormatDate(st.JoiningDate),
		ContractExpire:        cal.FormatDate(st.ContractExpire),
		ContractType:          st.ContractType,
		ContractStatus:        string(st.ContractStatus),
		Suspended:             st.Suspended,
		RemainingContractDays: v.RemainingContractDays,
		ServiceYears:          v.ServiceYears,
		IqamaNo:               st.IqamaNo,
		PassportNo:            st.PassportNo,
		Degree:                st.Degree,
		Speciality:            st.Speciality,
		SaudiCouncil:          st.SaudiCouncil,
		Classification:        st.Classification,
		DataFlow:              st.DataFlow,
		MOH:                   st.MOH,
		BLS:                   st.BLS,
		ACLS:                  st.ACLS,
		CSedation:             st.CSedation,
		MobileNo:              st.MobileNo,
		PersonalEmail:         st.PersonalEmail,
		CareEmail:             st.CareEmail,
		Notes:                 st.Notes,
		CreatedAt:             st.CreatedAt,
		UpdatedAt:             st.UpdatedAt,
	}
	for i := range v.Documents {
		resp.Documents = append(resp.Documents, documentResponse(cal, &v.Documents[i]))
	}
	return resp
}

func documentResponse(cal temporal.Calendar, d *domain.Document) dto.DocumentResponse {
	resp := dto.DocumentResponse{
		ID:                 d.ID,
		StaffID:            d.StaffID,
		DocType:            string(d.DocType),
		CustomName:         d.CustomName,
		RemainingDays:      d.RemainingDays,
		VerificationStatus: string(d.VerificationStatus),
		VerifiedByUserID:   d.VerifiedByUserID,
		VerifiedAt:         d.VerifiedAt,
		VerificationNote:   d.VerificationNote,
		CurrentVersionID:   d.CurrentVersionID,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if d.IssueDate != nil {
		s := cal.FormatDate(*d.IssueDate)
		resp.IssueDate = &s
	}
	if d.ExpiryDate != nil {
		s := cal.FormatDate(*d.ExpiryDate)
		resp.ExpiryDate = &s
	}
	if d.Status != nil {
		s := string(*d.Status)
		resp.Status = &s
	}
	return resp
}

func versionResponse(v *domain.DocumentVersion) dto.VersionResponse {
	return dto.VersionResponse{
		ID:           v.ID,
		DocumentID:   v.DocumentID,
		FileKey:      v.FileKey,
		FileName:     v.FileName,
		MimeType:     v.MimeType,
		SizeBytes:    v.SizeBytes,
		UploadedByID: v.UploadedByID,
		CreatedAt:    v.CreatedAt,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Role:     string(u.Role),
		StaffID:  u.StaffID,
		IsActive: u.IsActive,
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}

func auditResponse(e *domain.AuditLogEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:          e.ID,
		ActorUserID: e.ActorUserID,
		StaffID:     e.StaffID,
		DocumentID:  e.DocumentID,
		Action:      string(e.Action),
		Field:       e.Field,
		OldValue:    e.OldValue,
		NewValue:    e.NewValue,
		CreatedAt:   e.CreatedAt,
	}
}
