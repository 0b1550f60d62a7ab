package dto

import "time"

// StaffCreateRequest payload for POST /api/staff. Dates are YYYY-MM-DD.
type StaffCreateRequest struct {
	IDNo           string  `json:"idNo" validate:"required,min=3"`
	StaffName      string  `json:"staffName" validate:"required,min=2"`
	CurrentArea    string  `json:"currentArea" validate:"required"`
	CurrentPost    string  `json:"currentPost" validate:"required"`
	Gender         string  `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
	Birthday       string  `json:"birthday" validate:"required"`
	Nationality    string  `json:"nationality" validate:"required,min=2"`
	JoiningDate    string  `json:"joiningDate" validate:"required"`
	ContractExpire string  `json:"contractExpire" validate:"required"`
	ContractType   string  `json:"contractType" validate:"required"`
	Suspended      bool    `json:"suspended"`
	IqamaNo        *string `json:"iqamaNo"`
	PassportNo     *string `json:"passportNo"`
	Degree         *string `json:"degree"`
	Speciality     *string `json:"speciality"`
	SaudiCouncil   *string `json:"saudiCouncil"`
	Classification *string `json:"classification"`
	DataFlow       *string `json:"dataFlow"`
	MOH            *string `json:"moh"`
	BLS            *string `json:"bls"`
	ACLS           *string `json:"acls"`
	CSedation      *string `json:"cSedation"`
	MobileNo       string  `json:"mobileNo" validate:"required,min=8"`
	PersonalEmail  string  `json:"personalEmail" validate:"required,email"`
	CareEmail      string  `json:"careEmail" validate:"required,email"`
	Notes          *string `json:"notes"`
}

// StaffUpdateRequest payload for PATCH /api/staff/:id. Absent fields are untouched and
// an empty optional string clears the value.
type StaffUpdateRequest struct {
	StaffName      *string `json:"staffName" validate:"omitempty,min=2"`
	CurrentArea    *string `json:"currentArea" validate:"omitempty,min=1"`
	CurrentPost    *string `json:"currentPost" validate:"omitempty,min=1"`
	Gender         *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Birthday       *string `json:"birthday"`
	Nationality    *string `json:"nationality" validate:"omitempty,min=2"`
	JoiningDate    *string `json:"joiningDate"`
	ContractExpire *string `json:"contractExpire"`
	ContractType   *string `json:"contractType" validate:"omitempty,min=1"`
	Suspended      *bool   `json:"suspended"`
	IqamaNo        *string `json:"iqamaNo"`
	PassportNo     *string `json:"passportNo"`
	Degree         *string `json:"degree"`
	Speciality     *string `json:"speciality"`
	SaudiCouncil   *string `json:"saudiCouncil"`
	Classification *string `json:"classification"`
	DataFlow       *string `json:"dataFlow"`
	MOH            *string `json:"moh"`
	BLS            *string `json:"bls"`
	ACLS           *string `json:"acls"`
	CSedation      *string `json:"cSedation"`
	MobileNo       *string `json:"mobileNo" validate:"omitempty,min=8"`
	PersonalEmail  *string `json:"personalEmail" validate:"omitempty,email"`
	CareEmail      *string `json:"careEmail" validate:"omitempty,email"`
	Notes          *string `json:"notes"`
}

// StaffResponse is a staff record with derived values.
type StaffResponse struct {
	ID                    string             `json:"id"`
	IDNo                  string             `json:"idNo"`
	StaffName             string             `json:"staffName"`
	CurrentArea           string             `json:"currentArea"`
	CurrentPost           string             `json:"currentPost"`
	Gender                string             `json:"gender"`
	Birthday              string             `json:"birthday"`
	Nationality           string             `json:"nationality"`
	JoiningDate           string             `json:"joiningDate"`
	ContractExpire        string             `json:"contractExpire"`
	ContractType          string             `json:"contractType"`
	ContractStatus        string             `json:"contractStatus"`
	Suspended             bool               `json:"suspended"`
	RemainingContractDays int                `json:"remainingContractDays"`
	ServiceYears          int                `json:"serviceYears"`
	IqamaNo               *string            `json:"iqamaNo"`
	PassportNo            *string            `json:"passportNo"`
	Degree                *string            `json:"degree"`
	Speciality            *string            `json:"speciality"`
	SaudiCouncil          *string            `json:"saudiCouncil"`
	Classification        *string            `json:"classification"`
	DataFlow              *string            `json:"dataFlow"`
	MOH                   *string            `json:"moh"`
	BLS                   *string            `json:"bls"`
	ACLS                  *string            `json:"acls"`
	CSedation             *string            `json:"cSedation"`
	MobileNo              string             `json:"mobileNo"`
	PersonalEmail         string             `json:"personalEmail"`
	CareEmail             string             `json:"careEmail"`
	Notes                 *string            `json:"notes"`
	Documents             []DocumentResponse `json:"documents,omitempty"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// StaffListResponse is one page of staff.
type StaffListResponse struct {
	Items  []StaffResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
