package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

type AskParams struct {
	Question string `json:"question" validate:"required"`
}

type ScenarioParams struct {
	Scenario string `json:"scenario" validate:"required"`
}

type SummarizeParams struct {
	SectionText string `json:"section_text"`
}

type CompareParams struct {
	CollectionA string `json:"collection_a" validate:"required"`
	CollectionB string `json:"collection_b" validate:"required"`
}

func (params *AskParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *ScenarioParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *CompareParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(v any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(v); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
