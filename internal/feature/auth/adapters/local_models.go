package adapters

import (
	"time"

	"github.com/guregu/null/v6"

	"qrupees/internal/feature/auth/domain/entity"
)

// userModel はローカルバックエンドのusersテーブルです。
type userModel struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:255;not null;uniqueIndex"`
	Password  string `gorm:"size:255;not null"`
	IsAdmin   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (userModel) TableName() string { return "users" }

func (m userModel) toEntity() *entity.Account {
	return &entity.Account{ID: m.ID, Email: m.Email, PasswordHash: m.Password, IsAdmin: m.IsAdmin}
}

// registrationModel はローカルバックエンドのregistrationsテーブルです。
type registrationModel struct {
	ID                uint `gorm:"primaryKey"`
	UserID            uint `gorm:"not null;uniqueIndex"`
	FullName          string
	Phone             string
	Address           string
	City              string
	State             string
	ZipCode           string
	Country           string
	HighestDegree     string
	FieldOfStudy      string
	University        string
	GraduationYear    null.Int
	Certifications    string
	TradingDuration   string
	TradingStyle      string
	Markets           string
	Specializations   string
	CurrentOccupation string
	Company           string
	YearsOfExperience string
	LinkedIn          string `gorm:"column:linkedin"`
	AboutYourself     string
	Goals             string
	References        string
	Consent           bool
	Approved          bool `gorm:"not null;default:false;index"`
	CreatedAt         time.Time
}

func (registrationModel) TableName() string { return "registrations" }

func newRegistrationModel(userID uint, p entity.Profile) *registrationModel {
	return &registrationModel{
		UserID:            userID,
		FullName:          p.FullName,
		Phone:             p.Phone,
		Address:           p.Address,
		City:              p.City,
		State:             p.State,
		ZipCode:           p.ZipCode,
		Country:           p.Country,
		HighestDegree:     p.HighestDegree,
		FieldOfStudy:      p.FieldOfStudy,
		University:        p.University,
		GraduationYear:    p.GraduationYear,
		Certifications:    p.Certifications,
		TradingDuration:   p.TradingDuration,
		TradingStyle:      p.TradingStyle,
		Markets:           p.Markets,
		Specializations:   p.Specializations,
		CurrentOccupation: p.CurrentOccupation,
		Company:           p.Company,
		YearsOfExperience: p.YearsOfExperience,
		LinkedIn:          p.LinkedIn,
		AboutYourself:     p.AboutYourself,
		Goals:             p.Goals,
		References:        p.References,
		Consent:           p.Consent,
	}
}
