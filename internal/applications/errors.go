package applications

import "errors"

var (
	ErrNotFound                 = errors.New("application not found")
	ErrInvalidAmount            = errors.New("amount must be positive and within product bounds")
	ErrInvalidTerm              = errors.New("term must be positive and within product bounds")
	ErrRequiredDocumentsMissing = errors.New("required documents missing")
	ErrApplicationTerminal      = errors.New("application already decided")
	ErrNotSubmittable           = errors.New("application is not in draft")
	ErrRiskAlreadyAssessed      = errors.New("risk assessment already attached")
	ErrInvalidAssessment        = errors.New("invalid risk assessment")
	ErrInvalidInput             = errors.New("invalid input")
)
