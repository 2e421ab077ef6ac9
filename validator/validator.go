// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package validator checks payloads at the boundary before they reach the
// stores or the backend services.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

type Payload interface {
	Validate() error
}

type AddToCartPayload struct {
	MerchantID string  `validate:"required"`
	ProductID  string  `validate:"required"`
	Quantity   uint64  `validate:"required,gte=1,lte=99"`
	Price      float64 `validate:"gte=0"`
}

type UpdateQuantityPayload struct {
	MerchantID string `validate:"required"`
	ProductID  string `validate:"required"`
	Quantity   int64  `validate:"gte=0,lte=99"`
}

type LoginPayload struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type RegisterPayload struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,max=64"`
	Password string `validate:"required,min=6"`
}

type AddressPayload struct {
	Name          string `validate:"required"`
	Phone         string `validate:"required,max=32"`
	StreetAddress string `validate:"required,max=512"`
	City          string `validate:"required,max=128"`
	State         string `validate:"max=128"`
	Country       string `validate:"required,max=128"`
	ZipCode       string `validate:"required,max=16"`
}

type CreditCardPayload struct {
	Number string `validate:"required,credit_card"`
	CVV    int64  `validate:"required,min=100,max=9999"`
	Month  int64  `validate:"required,gte=1,lte=12"`
	Year   int64  `validate:"required,gte=2000"`
}

type PlaceOrderPayload struct {
	Email     string `validate:"required,email"`
	AddressID int64  `validate:"required,gt=0"`
	Currency  string `validate:"required,iso4217"`
	Items     int    `validate:"gt=0"`
}

func (p *AddToCartPayload) Validate() error      { return validate.Struct(p) }
func (p *UpdateQuantityPayload) Validate() error { return validate.Struct(p) }
func (p *LoginPayload) Validate() error          { return validate.Struct(p) }
func (p *RegisterPayload) Validate() error       { return validate.Struct(p) }
func (p *AddressPayload) Validate() error        { return validate.Struct(p) }
func (p *CreditCardPayload) Validate() error     { return validate.Struct(p) }
func (p *PlaceOrderPayload) Validate() error     { return validate.Struct(p) }

// ValidationErrorResponse flattens validator errors into one message that
// names every failing field.
func ValidationErrorResponse(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return errors.New("invalid payload")
	}
	var msg strings.Builder
	for i, e := range validationErrs {
		if i > 0 {
			msg.WriteString("; ")
		}
		switch e.Tag() {
		case "required":
			fmt.Fprintf(&msg, "field %s is required", e.Field())
		case "email":
			fmt.Fprintf(&msg, "field %s must be a valid email", e.Field())
		default:
			fmt.Fprintf(&msg, "field %s is invalid (%s=%s)", e.Field(), e.Tag(), e.Param())
		}
	}
	return errors.New(msg.String())
}
