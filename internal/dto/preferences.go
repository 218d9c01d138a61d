package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ErrInvalidPreferences 偏好参数格式错误
var ErrInvalidPreferences = errors.New("偏好参数无效")

var validate = validator.New()

// PreferencesInput 请求中的 preferences 对象
// 前端历史版本会把布尔值传成 "true"/"1"，因此采用弱类型解码
type PreferencesInput struct {
	AvoidEarlyMorning bool                `mapstructure:"avoid_early_morning"`
	AvoidLateEvening  bool                `mapstructure:"avoid_late_evening"`
	TimeMode          string              `mapstructure:"time_mode" validate:"omitempty,oneof=none strict soft"`
	FacultyRank       map[string][]string `mapstructure:"faculty_rank" validate:"omitempty,max=30,dive,keys,required,max=64,endkeys,max=20,dive,required,max=100"`
	ExcludeSlots      []string            `mapstructure:"exclude_slots" validate:"omitempty,max=84,dive,required,max=20"`
	AvoidFaculties    []string            `mapstructure:"avoided_faculties" validate:"omitempty,max=50,dive,required,max=100"`

	// CourseFacultyPreferences 旧字段名，合并进 FacultyRank
	CourseFacultyPreferences map[string][]string `mapstructure:"course_faculty_preferences" validate:"omitempty,max=30,dive,keys,required,max=64,endkeys,max=20,dive,required,max=100"`
}

// ParsePreferences 将原始 JSON 对象解码并校验为 PreferencesInput
// raw 为 nil 时返回零值偏好
func ParsePreferences(raw map[string]interface{}) (*PreferencesInput, error) {
	var in PreferencesInput
	if len(raw) == 0 {
		in.TimeMode = "none"
		return &in, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &in,
	})
	if err != nil {
		return nil, fmt.Errorf("创建偏好解码器失败: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	if err := validate.Struct(&in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPreferences, describeValidation(err))
	}

	for courseID, names := range in.CourseFacultyPreferences {
		if in.FacultyRank == nil {
			in.FacultyRank = make(map[string][]string, len(in.CourseFacultyPreferences))
		}
		if _, ok := in.FacultyRank[courseID]; !ok {
			in.FacultyRank[courseID] = names
		}
	}
	in.CourseFacultyPreferences = nil

	if in.TimeMode == "" {
		in.TimeMode = "none"
	}
	return &in, nil
}

// describeValidation 把 validator 错误转为 "字段: 规则" 列表
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
