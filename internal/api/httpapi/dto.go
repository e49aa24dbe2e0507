package httpapi

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/BearBump/PickupBox/internal/models"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "ownerkey", func(fl validator.FieldLevel) bool {
		return models.ValidOwnerKey(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

type loginRequest struct {
	Role     string `json:"role" validate:"required,oneof=owner operator"`
	OwnerKey string `json:"owner_key" validate:"omitempty,ownerkey"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Role       string `json:"role"`
	OwnerKey   string `json:"owner_key,omitempty"`
	Registered bool   `json:"registered"`
}

type ownerDTO struct {
	Key   string `json:"key" validate:"required,ownerkey"`
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
	Email string `json:"email" validate:"omitempty,email"`
}

type pointDTO struct {
	Address    string `json:"address" validate:"required,max=200"`
	Locality   string `json:"locality" validate:"required"`
	PostalCode string `json:"postal_code" validate:"omitempty,numeric,len=5"`
	Province   string `json:"province"`
	SourceType string `json:"source_type"`
	TimeOfDay  string `json:"time_of_day" validate:"required"`
}

type containerDTO struct {
	Category string `json:"category" validate:"required"`
	Size     string `json:"size" validate:"required"`
	Cadence  string `json:"cadence"`
}

type registerRequest struct {
	Owner      ownerDTO       `json:"owner"`
	Point      pointDTO       `json:"point"`
	Containers []containerDTO `json:"containers" validate:"dive"`
	StartDate  string         `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type scheduleRequest struct {
	OwnerKey     string        `json:"owner_key" validate:"required,ownerkey"`
	ContainerID  string        `json:"container_id"`
	NewContainer *containerDTO `json:"new_container"`
	TimeOfDay    string        `json:"time_of_day"`
	StartDate    string        `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Date         string        `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Recurring    bool          `json:"recurring"`
	PointID      string        `json:"point_id"`
}

type pointJSON struct {
	ID         string `json:"id"`
	OwnerKey   string `json:"owner_key"`
	Address    string `json:"address"`
	Locality   string `json:"locality"`
	PostalCode string `json:"postal_code,omitempty"`
	Province   string `json:"province,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	TimeOfDay  string `json:"time_of_day"`
	TimeLabel  string `json:"time_of_day_label"`
}

type containerJSON struct {
	ID             string `json:"id"`
	PointID        string `json:"point_id"`
	CapacityLiters int    `json:"capacity_liters"`
	Size           string `json:"size"`
	WasteCategory  int    `json:"waste_category"`
	Category       string `json:"category"`
	Cadence        string `json:"cadence"`
	Punctual       bool   `json:"punctual"`
}

type pickupJSON struct {
	ID            string  `json:"id"`
	ContainerID   string  `json:"container_id"`
	RequestDate   string  `json:"request_date"`
	EstimatedDate string  `json:"estimated_date"`
	ActualDate    *string `json:"actual_date,omitempty"`
	Incident      *string `json:"incident,omitempty"`
	Cadence       string  `json:"cadence"`
}

type ownerJSON struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type ownerPointJSON struct {
	Point      pointJSON       `json:"point"`
	Containers []containerJSON `json:"containers"`
}

type ownerViewJSON struct {
	Owner  ownerJSON        `json:"owner"`
	Points []ownerPointJSON `json:"points"`
}

type registrationJSON struct {
	Owner        ownerJSON       `json:"owner"`
	OwnerCreated bool            `json:"owner_created"`
	Point        pointJSON       `json:"point"`
	PointCreated bool            `json:"point_created"`
	Containers   []containerJSON `json:"containers"`
	Schedules    []outcomeJSON   `json:"schedules"`
}

type acceptedJSON struct {
	Date     string `json:"date"`
	PickupID string `json:"pickup_id"`
	Holiday  string `json:"holiday,omitempty"`
}

type rejectedJSON struct {
	Date  string `json:"date"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type warningJSON struct {
	PointID   string `json:"point_id"`
	Previous  string `json:"previous"`
	Requested string `json:"requested"`
	InEffect  string `json:"in_effect"`
	Applied   bool   `json:"applied"`
	Message   string `json:"message"`
}

type problemJSON struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type outcomeJSON struct {
	Status      string         `json:"status"`
	PointID     string         `json:"point_id,omitempty"`
	ContainerID string         `json:"container_id,omitempty"`
	Accepted    []acceptedJSON `json:"accepted"`
	Rejected    []rejectedJSON `json:"rejected"`
	Warnings    []warningJSON  `json:"warnings,omitempty"`
	Reason      *problemJSON   `json:"reason,omitempty"`
}

type previewJSON struct {
	Date    string `json:"date"`
	Holiday string `json:"holiday,omitempty"`
}

type journalEntryJSON struct {
	ID          uint64  `json:"id"`
	EventID     string  `json:"event_id"`
	EventType   string  `json:"event_type"`
	OwnerKey    string  `json:"owner_key"`
	PointID     string  `json:"point_id"`
	ContainerID string  `json:"container_id,omitempty"`
	PickupID    *string `json:"pickup_id,omitempty"`
	Day         *string `json:"day,omitempty"`
	Cadence     string  `json:"cadence,omitempty"`
	Detail      string  `json:"detail,omitempty"`
	OccurredAt  string  `json:"occurred_at"`
}
