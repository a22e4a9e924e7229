package protocol

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"piano-relay-server/domain"
	"piano-relay-server/instrument"
)

const MaxRoomNameLength = 100

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "instrument", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.String && instrument.Valid(fl.Field().String())
	})
	mustRegister(v, "finite", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		}
		return false
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// JoinRequest is the normalized form of a connection's handshake parameters.
type JoinRequest struct {
	RoomName       string `json:"roomName" validate:"required,max=100"`
	InstrumentName string `json:"instrumentName" validate:"required,instrument"`
}

type playFields struct {
	Note   *string  `json:"note" validate:"required,min=1"`
	Volume *float64 `json:"volume" validate:"required,finite"`
}

type stopFields struct {
	Note    *string `json:"note" validate:"required,min=1"`
	Sustain *bool   `json:"sustain" validate:"required"`
}

type instrumentFields struct {
	InstrumentName *string `json:"instrumentName" validate:"required,instrument"`
}

// ValidateJoin checks handshake parameters before room admission. The room
// name is trimmed; the instrument must match the catalog exactly.
func ValidateJoin(params domain.JoinParams) (JoinRequest, error) {
	req := JoinRequest{
		RoomName:       strings.TrimSpace(params.RoomName),
		InstrumentName: params.InstrumentName,
	}
	if err := check(req); err != nil {
		return JoinRequest{}, err
	}
	return req, nil
}

// DecodeEvent decodes one client frame and validates it.
func DecodeEvent(codec Codec, data []byte) (Event, error) {
	var in Inbound
	if err := codec.Decode(data, &in); err != nil {
		return nil, fmt.Errorf("%w: malformed %s frame: %v", domain.ErrValidation, codec.Name(), err)
	}
	return ValidateEvent(in)
}

// ValidateEvent turns a raw inbound frame into a typed event, or fails with
// an error wrapping domain.ErrValidation.
func ValidateEvent(in Inbound) (Event, error) {
	switch in.Type {
	case KindPlay:
		f := playFields{Note: in.Note, Volume: in.Volume}
		if err := check(f); err != nil {
			return nil, err
		}
		return Play{Note: *f.Note, Volume: *f.Volume}, nil
	case KindStop:
		f := stopFields{Note: in.Note, Sustain: in.Sustain}
		if err := check(f); err != nil {
			return nil, err
		}
		return Stop{Note: *f.Note, Sustain: *f.Sustain}, nil
	case KindInstrumentChange:
		f := instrumentFields{InstrumentName: in.InstrumentName}
		if err := check(f); err != nil {
			return nil, err
		}
		return InstrumentChange{InstrumentName: *f.InstrumentName}, nil
	case "":
		return nil, fmt.Errorf("%w: missing message type", domain.ErrValidation)
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, in.Type)
	}
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, describe(ve[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must not be empty", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "instrument":
		return fmt.Sprintf("%s %q is not a known instrument", fe.Field(), fmt.Sprint(fe.Value()))
	case "finite":
		return fmt.Sprintf("%s must be a finite number", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
