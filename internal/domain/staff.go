package domain

import (
	"time"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
)

// Gender enumerates the recorded genders.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Staff is an ICU personnel record.
type Staff struct {
	ID             string
	IDNo           string
	StaffName      string
	CurrentArea    string
	CurrentPost    string
	Gender         Gender
	Birthday       time.Time
	Nationality    string
	JoiningDate    time.Time
	ContractExpire time.Time
	ContractType   string
	ContractStatus status.ContractStatus
	Suspended      bool
	IqamaNo        *string
	PassportNo     *string
	Degree         *string
	Speciality     *string
	SaudiCouncil   *string
	Classification *string
	DataFlow       *string
	MOH            *string
	BLS            *string
	ACLS           *string
	CSedation      *string
	MobileNo       string
	PersonalEmail  string
	CareEmail      string
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApplyContract sets the contract expiry and suspension flag and recomputes the derived
// status in the same step. It is the only writer of those three fields.
func (s *Staff) ApplyContract(cal temporal.Calendar, now, expire time.Time, suspended bool) {
	s.ContractExpire = cal.StartOfDay(expire)
	s.Suspended = suspended
	s.ContractStatus = status.Contract(cal.RemainingDays(now, s.ContractExpire), suspended)
}

// RefreshContractStatus recomputes the derived status for the current day.
func (s *Staff) RefreshContractStatus(cal temporal.Calendar, now time.Time) bool {
	next := status.Contract(cal.RemainingDays(now, s.ContractExpire), s.Suspended)
	if next == s.ContractStatus {
		return false
	}
	s.ContractStatus = next
	return true
}

// RemainingContractDays returns whole days until the contract expires.
func (s *Staff) RemainingContractDays(cal temporal.Calendar, now time.Time) int {
	return cal.RemainingDays(now, s.ContractExpire)
}

// ServiceYears returns completed years since joining.
func (s *Staff) ServiceYears(cal temporal.Calendar, now time.Time) int {
	return cal.ServiceYears(now, s.JoiningDate)
}

// Staff field names as exposed on the API and recorded in the audit ledger.
const (
	FieldIDNo           = "id_no"
	FieldStaffName      = "staff_name"
	FieldCurrentArea    = "current_area"
	FieldCurrentPost    = "current_post"
	FieldGender         = "gender"
	FieldBirthday       = "birthday"
	FieldNationality    = "nationality"
	FieldJoiningDate    = "joining_date"
	FieldContractExpire = "contract_expire"
	FieldContractType   = "contract_type"
	FieldSuspended      = "suspended"
	FieldIqamaNo        = "iqama_no"
	FieldPassportNo     = "passport_no"
	FieldDegree         = "degree"
	FieldSpeciality     = "speciality"
	FieldSaudiCouncil   = "saudi_council"
	FieldClassification = "classification"
	FieldDataFlow       = "data_flow"
	FieldMOH            = "moh"
	FieldBLS            = "bls"
	FieldACLS           = "acls"
	FieldCSedation      = "c_sedation"
	FieldMobileNo       = "mobile_no"
	FieldPersonalEmail  = "personal_email"
	FieldCareEmail      = "care_email"
	FieldNotes          = "notes"
)

// StaffField pairs a field name with its accessor.
type StaffField struct {
	Name  string
	Value func(*Staff) any
}

// StaffFields lists every patchable staff attribute in canonical order.
var StaffFields = []StaffField{
	{FieldStaffName, func(s *Staff) any { return s.StaffName }},
	{FieldCurrentArea, func(s *Staff) any { return s.CurrentArea }},
	{FieldCurrentPost, func(s *Staff) any { return s.CurrentPost }},
	{FieldGender, func(s *Staff) any { return string(s.Gender) }},
	{FieldBirthday, func(s *Staff) any { return s.Birthday }},
	{FieldNationality, func(s *Staff) any { return s.Nationality }},
	{FieldJoiningDate, func(s *Staff) any { return s.JoiningDate }},
	{FieldContractExpire, func(s *Staff) any { return s.ContractExpire }},
	{FieldContractType, func(s *Staff) any { return s.ContractType }},
	{FieldSuspended, func(s *Staff) any { return s.Suspended }},
	{FieldIqamaNo, func(s *Staff) any { return s.IqamaNo }},
	{FieldPassportNo, func(s *Staff) any { return s.PassportNo }},
	{FieldDegree, func(s *Staff) any { return s.Degree }},
	{FieldSpeciality, func(s *Staff) any { return s.Speciality }},
	{FieldSaudiCouncil, func(s *Staff) any { return s.SaudiCouncil }},
	{FieldClassification, func(s *Staff) any { return s.Classification }},
	{FieldDataFlow, func(s *Staff) any { return s.DataFlow }},
	{FieldMOH, func(s *Staff) any { return s.MOH }},
	{FieldBLS, func(s *Staff) any { return s.BLS }},
	{FieldACLS, func(s *Staff) any { return s.ACLS }},
	{FieldCSedation, func(s *Staff) any { return s.CSedation }},
	{FieldMobileNo, func(s *Staff) any { return s.MobileNo }},
	{FieldPersonalEmail, func(s *Staff) any { return s.PersonalEmail }},
	{FieldCareEmail, func(s *Staff) any { return s.CareEmail }},
	{FieldNotes, func(s *Staff) any { return s.Notes }},
}

// StaffPatch carries a partial staff update. Nil fields are left untouched.
type StaffPatch struct {
	StaffName      *string
	CurrentArea    *string
	CurrentPost    *string
	Gender         *Gender
	Birthday       *time.Time
	Nationality    *string
	JoiningDate    *time.Time
	ContractExpire *time.Time
	ContractType   *string
	Suspended      *bool
	IqamaNo        *string
	PassportNo     *string
	Degree         *string
	Speciality     *string
	SaudiCouncil   *string
	Classification *string
	DataFlow       *string
	MOH            *string
	BLS            *string
	ACLS           *string
	CSedation      *string
	MobileNo       *string
	PersonalEmail  *string
	CareEmail      *string
	Notes          *string
}

// Fields returns the names of the fields the patch sets.
func (p StaffPatch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.StaffName != nil, FieldStaffName)
	add(p.CurrentArea != nil, FieldCurrentArea)
	add(p.CurrentPost != nil, FieldCurrentPost)
	add(p.Gender != nil, FieldGender)
	add(p.Birthday != nil, FieldBirthday)
	add(p.Nationality != nil, FieldNationality)
	add(p.JoiningDate != nil, FieldJoiningDate)
	add(p.ContractExpire != nil, FieldContractExpire)
	add(p.ContractType != nil, FieldContractType)
	add(p.Suspended != nil, FieldSuspended)
	add(p.IqamaNo != nil, FieldIqamaNo)
	add(p.PassportNo != nil, FieldPassportNo)
	add(p.Degree != nil, FieldDegree)
	add(p.Speciality != nil, FieldSpeciality)
	add(p.SaudiCouncil != nil, FieldSaudiCouncil)
	add(p.Classification != nil, FieldClassification)
	add(p.DataFlow != nil, FieldDataFlow)
	add(p.MOH != nil, FieldMOH)
	add(p.BLS != nil, FieldBLS)
	add(p.ACLS != nil, FieldACLS)
	add(p.CSedation != nil, FieldCSedation)
	add(p.MobileNo != nil, FieldMobileNo)
	add(p.PersonalEmail != nil, FieldPersonalEmail)
	add(p.CareEmail != nil, FieldCareEmail)
	add(p.Notes != nil, FieldNotes)
	return fields
}

// ApplyTo copies the non-contract fields of the patch onto s. Contract expiry and the
// suspension flag are applied by the status assessor so the derived status moves with them.
func (p StaffPatch) ApplyTo(s *Staff) {
	setString(&s.StaffName, p.StaffName)
	setString(&s.CurrentArea, p.CurrentArea)
	setString(&s.CurrentPost, p.CurrentPost)
	if p.Gender != nil {
		s.Gender = *p.Gender
	}
	if p.Birthday != nil {
		s.Birthday = *p.Birthday
	}
	setString(&s.Nationality, p.Nationality)
	if p.JoiningDate != nil {
		s.JoiningDate = *p.JoiningDate
	}
	setString(&s.ContractType, p.ContractType)
	setOptional(&s.IqamaNo, p.IqamaNo)
	setOptional(&s.PassportNo, p.PassportNo)
	setOptional(&s.Degree, p.Degree)
	setOptional(&s.Speciality, p.Speciality)
	setOptional(&s.SaudiCouncil, p.SaudiCouncil)
	setOptional(&s.Classification, p.Classification)
	setOptional(&s.DataFlow, p.DataFlow)
	setOptional(&s.MOH, p.MOH)
	setOptional(&s.BLS, p.BLS)
	setOptional(&s.ACLS, p.ACLS)
	setOptional(&s.CSedation, p.CSedation)
	setString(&s.MobileNo, p.MobileNo)
	setString(&s.PersonalEmail, p.PersonalEmail)
	setString(&s.CareEmail, p.CareEmail)
	setOptional(&s.Notes, p.Notes)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// setOptional stores an empty string as nil.
func setOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	if *src == "" {
		*dst = nil
		return
	}
	v := *src
	*dst = &v
}
