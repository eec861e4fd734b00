package mturk

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"
)

// System qualification types the service defines for every account.
const (
	qualMastersProduction = "2F1QJWKUDD8XADTFD2Q0G6UTO95ALH"
	qualMastersSandbox    = "2ARFPLSP75KLA8M8DH1HTEQVJT3SY6"
	qualAdult             = "00000000000000000060"
	qualHITsApproved      = "00000000000000000040"
	qualPercentApproved   = "000000000000000000L0"
	qualLocale            = "00000000000000000071"
)

// RequirementOption adds optional attributes to a qualification requirement.
type RequirementOption func(*types.QualificationRequirement)

// WithIntegerValues sets the values the worker's qualification score is
// compared against.
func WithIntegerValues(values ...int32) RequirementOption {
	return func(r *types.QualificationRequirement) { r.IntegerValues = values }
}

// WithLocales sets the locales the worker's location is compared against.
func WithLocales(locales ...types.Locale) RequirementOption {
	return func(r *types.QualificationRequirement) { r.LocaleValues = locales }
}

// WithActionsGuarded controls which task actions the requirement gates.
func WithActionsGuarded(actions types.HITAccessActions) RequirementOption {
	return func(r *types.QualificationRequirement) { r.ActionsGuarded = actions }
}

// NewRequirement builds a qualification requirement for an arbitrary
// qualification type.
func NewRequirement(qualificationTypeID string, comparator types.Comparator, opts ...RequirementOption) types.QualificationRequirement {
	r := types.QualificationRequirement{
		QualificationTypeId: aws.String(qualificationTypeID),
		Comparator:          comparator,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// MastersRequirement restricts the task to Masters workers. The Masters
// qualification has a different type id in each environment.
func MastersRequirement(env Environment, opts ...RequirementOption) types.QualificationRequirement {
	id := qualMastersProduction
	if env == Sandbox {
		id = qualMastersSandbox
	}
	return NewRequirement(id, types.ComparatorExists, opts...)
}

// AdultRequirement restricts the task to workers who have agreed to view
// adult content.
func AdultRequirement(opts ...RequirementOption) types.QualificationRequirement {
	opts = append([]RequirementOption{WithIntegerValues(1)}, opts...)
	return NewRequirement(qualAdult, types.ComparatorEqualTo, opts...)
}

// HITsApprovedRequirement gates on the worker's lifetime count of approved
// assignments.
func HITsApprovedRequirement(comparator types.Comparator, value int32, opts ...RequirementOption) types.QualificationRequirement {
	opts = append([]RequirementOption{WithIntegerValues(value)}, opts...)
	return NewRequirement(qualHITsApproved, comparator, opts...)
}

// PercentApprovedRequirement gates on the worker's lifetime approval rate.
func PercentApprovedRequirement(comparator types.Comparator, value int32, opts ...RequirementOption) types.QualificationRequirement {
	opts = append([]RequirementOption{WithIntegerValues(value)}, opts...)
	return NewRequirement(qualPercentApproved, comparator, opts...)
}

// LocaleRequirement gates on the worker's location. At least one locale is
// required for the requirement to be meaningful.
func LocaleRequirement(comparator types.Comparator, locales []types.Locale, opts ...RequirementOption) types.QualificationRequirement {
	opts = append([]RequirementOption{WithLocales(locales...)}, opts...)
	return NewRequirement(qualLocale, comparator, opts...)
}

// CountryLocale builds a country-level locale value.
func CountryLocale(country string) types.Locale {
	return types.Locale{Country: aws.String(country)}
}

// RegionLocale builds a locale value scoped to a country subdivision, such
// as a US state.
func RegionLocale(country, subdivision string) types.Locale {
	return types.Locale{Country: aws.String(country), Subdivision: aws.String(subdivision)}
}
