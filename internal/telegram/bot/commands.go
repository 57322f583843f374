package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

var (
	errTreatArgs  = errors.New("usage: /treat <label> <mode> <severity> <area_m2> [YYYY-MM-DD]")
	errPlanArgs   = errors.New("usage: /plan <id>")
	errExportArgs = errors.New("usage: /export <id> [markdown|pdf|docx]")
)

// ParseTreatCommand turns the arguments of /treat into a solution request.
// The area accepts a decimal comma.
func ParseTreatCommand(args string) (*entity.SolutionRequest, error) {
	fields := strings.Fields(args)
	if len(fields) < 4 || len(fields) > 5 {
		return nil, errTreatArgs
	}

	area, err := strconv.ParseFloat(strings.ReplaceAll(fields[3], ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("area_m2 must be a number, got %q", fields[3])
	}

	req := &entity.SolutionRequest{
		CNNLabel: fields[0],
		Mode:     fields[1],
		Severity: fields[2],
		AreaM2:   &area,
	}
	if len(fields) == 5 {
		req.DateISO = fields[4]
	}

	return req, nil
}

// ParsePlanCommand returns the plan id of /plan.
func ParsePlanCommand(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return "", errPlanArgs
	}
	return fields[0], nil
}

// ParseExportCommand returns the plan id and format of /export; the format
// defaults to pdf.
func ParseExportCommand(args string) (id, format string, err error) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 1:
		return fields[0], string(entity.FormatPDF), nil
	case 2:
		return fields[0], strings.ToLower(fields[1]), nil
	default:
		return "", "", errExportArgs
	}
}
