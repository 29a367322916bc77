package fundingrequests

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/fundingdesk/internal/app/system/apperr"
	"github.com/dalemusser/fundingdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fundingdesk/internal/domain/models"
)

const maxJSONBody = 1 << 20

// dateLayout is the wire format of dateOfDeath.
const dateLayout = "2006-01-02"

// recordInput lists the case fields a caller may set. Ownership,
// organization, status and attachment fields are deliberately absent;
// a body naming any of them is rejected.
type recordInput struct {
	DecedentFirstName *string  `json:"decedentFirstName"`
	DecedentLastName  *string  `json:"decedentLastName"`
	DateOfDeath       *string  `json:"dateOfDeath"`
	InsuranceCompany  *string  `json:"insuranceCompany"`
	PolicyNumber      *string  `json:"policyNumber"`
	AssignmentAmount  *float64 `json:"assignmentAmount"`
	Notes             *string  `json:"notes"`
}

// decodeJSON reads exactly one JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.Wrap(apperr.PayloadTooLarge, "Request body is too large.", err)
		}
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.BadRequest, "Request body is empty.")
		}
		return apperr.Wrap(apperr.BadRequest, "Request body is not valid: "+err.Error(), err)
	}
	if dec.More() {
		return apperr.New(apperr.BadRequest, "Request body must be a single JSON object.")
	}
	return nil
}

// apply copies the set fields of in onto rec and returns their names.
func (in recordInput) apply(rec *models.FundingRequest) ([]string, error) {
	var changed []string
	setText := func(name string, src *string, dst *string) {
		if src == nil {
			return
		}
		*dst = htmlsanitize.PlainText(*src)
		changed = append(changed, name)
	}

	setText("decedentFirstName", in.DecedentFirstName, &rec.DecedentFirstName)
	setText("decedentLastName", in.DecedentLastName, &rec.DecedentLastName)
	setText("insuranceCompany", in.InsuranceCompany, &rec.InsuranceCompany)
	setText("policyNumber", in.PolicyNumber, &rec.PolicyNumber)
	setText("notes", in.Notes, &rec.Notes)

	if in.DateOfDeath != nil {
		s := strings.TrimSpace(*in.DateOfDeath)
		if s == "" {
			rec.DateOfDeath = nil
		} else {
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				return nil, apperr.New(apperr.BadRequest, "dateOfDeath must be formatted YYYY-MM-DD.")
			}
			rec.DateOfDeath = &d
		}
		changed = append(changed, "dateOfDeath")
	}

	if in.AssignmentAmount != nil {
		if *in.AssignmentAmount < 0 {
			return nil, apperr.New(apperr.BadRequest, "assignmentAmount cannot be negative.")
		}
		rec.AssignmentAmount = *in.AssignmentAmount
		changed = append(changed, "assignmentAmount")
	}

	return changed, nil
}
