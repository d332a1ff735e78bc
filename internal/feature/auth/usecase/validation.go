package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/guregu/null/v6"

	"qrupees/internal/feature/auth/domain"
	"qrupees/internal/feature/auth/domain/entity"
)

const (
	minGraduationYear = 1950
	maxGraduationYear = 2030
)

// RegisterInput はフォームから送信されたトレーダー登録です。
// フィールドの順序がエラーを報告する順序になります。
type RegisterInput struct {
	FullName          string   `json:"full_name" validate:"required"`
	Email             string   `json:"email" validate:"required,email"`
	Phone             string   `json:"phone" validate:"required,phone"`
	Password          string   `json:"password" validate:"required,min=8"`
	Address           string   `json:"address"`
	City              string   `json:"city"`
	State             string   `json:"state"`
	ZipCode           string   `json:"zip_code"`
	Country           string   `json:"country"`
	HighestDegree     string   `json:"highest_degree"`
	FieldOfStudy      string   `json:"field_of_study"`
	University        string   `json:"university"`
	GraduationYear    *int     `json:"graduation_year"`
	Certifications    string   `json:"certifications"`
	TradingDuration   string   `json:"trading_duration"`
	TradingStyle      string   `json:"trading_style"`
	Markets           []string `json:"markets"`
	Specializations   string   `json:"specializations"`
	CurrentOccupation string   `json:"current_occupation"`
	Company           string   `json:"company"`
	YearsOfExperience string   `json:"years_of_experience"`
	LinkedIn          string   `json:"linkedin"`
	Consent           bool     `json:"consent" validate:"required"`
	AboutYourself     string   `json:"about_yourself" validate:"maxwords=150"`
	Goals             string   `json:"goals"`
	References        string   `json:"references"`
}

// Profile は入力を保存用のプロフィールに変換します。
func (in RegisterInput) Profile() entity.Profile {
	var grad null.Int
	if in.GraduationYear != nil {
		grad = null.IntFrom(int64(*in.GraduationYear))
	}
	return entity.Profile{
		FullName:          strings.TrimSpace(in.FullName),
		Phone:             in.Phone,
		Address:           in.Address,
		City:              in.City,
		State:             in.State,
		ZipCode:           in.ZipCode,
		Country:           in.Country,
		HighestDegree:     in.HighestDegree,
		FieldOfStudy:      in.FieldOfStudy,
		University:        in.University,
		GraduationYear:    grad,
		Certifications:    in.Certifications,
		TradingDuration:   in.TradingDuration,
		TradingStyle:      in.TradingStyle,
		Markets:           strings.Join(in.Markets, ", "),
		Specializations:   in.Specializations,
		CurrentOccupation: in.CurrentOccupation,
		Company:           in.Company,
		YearsOfExperience: in.YearsOfExperience,
		LinkedIn:          in.LinkedIn,
		AboutYourself:     in.AboutYourself,
		Goals:             in.Goals,
		References:        in.References,
		Consent:           in.Consent,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// 登録エラーはプログラムの誤りなので起動時に落とす
	if err := v.RegisterValidation("phone", isPhone); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("maxwords", maxWords); err != nil {
		panic(err)
	}
	return v
}

// isPhone は10桁以上の数字のみの番号を受け付けます。
func isPhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func maxWords(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return WordCount(fl.Field().String()) <= limit
}

// WordCount は空白区切りの単語数を数えます。
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Validate は登録内容をチェックし、最初の問題を*domain.ValidationErrorとして返します。
func (in RegisterInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toValidationError(verrs[0])
		}
		return err
	}
	if in.GraduationYear != nil && (*in.GraduationYear < minGraduationYear || *in.GraduationYear > maxGraduationYear) {
		return &domain.ValidationError{
			Field:   "graduation_year",
			Message: fmt.Sprintf("must be between %d and %d", minGraduationYear, maxGraduationYear),
		}
	}
	return nil
}

func toValidationError(fe validator.FieldError) *domain.ValidationError {
	field := fe.Field()
	var msg string
	switch {
	case field == "consent":
		msg = "you must agree to the terms"
	case fe.Tag() == "required":
		msg = "is required"
	case fe.Tag() == "email":
		msg = "must be a valid email address"
	case fe.Tag() == "phone":
		msg = "must be at least 10 digits"
	case fe.Tag() == "min":
		msg = fmt.Sprintf("must be at least %s characters long", fe.Param())
	case fe.Tag() == "maxwords":
		msg = fmt.Sprintf("exceeds %s words", fe.Param())
	default:
		msg = "is invalid"
	}
	return &domain.ValidationError{Field: field, Message: msg}
}
