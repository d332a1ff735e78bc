package entity

import "github.com/guregu/null/v6"

// Profile は登録時に入力されたトレーダーのアンケートです。
type Profile struct {
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
	Markets           string // カンマ区切り
	Specializations   string
	CurrentOccupation string
	Company           string
	YearsOfExperience string
	LinkedIn          string
	AboutYourself     string
	Goals             string
	References        string
	Consent           bool
}

// Registration はアカウントとプロフィール、承認状態を結び付けます。
// Approved はfalseからtrueにしか変化しません。
type Registration struct {
	ID        uint
	AccountID uint
	Profile   Profile
	Approved  bool
}

// PendingRegistration は管理者の承認キューの1行です。
type PendingRegistration struct {
	RegistrationID uint
	Email          string
	FullName       string
}
