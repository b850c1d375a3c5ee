package services

import (
	"fmt"

	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/model"
)

// RequiredGuarantors is the number of vouching guarantors a driver dossier
// needs before verification can proceed. Both the company path and the
// self-service path check against it.
const RequiredGuarantors = 2

// CheckDossier is the completeness gate: at least RequiredGuarantors
// guarantors, a driver identity document, and a document for every guarantor.
// The count is checked first, so an understaffed dossier always reports
// MISSING_GUARANTORS regardless of document state. Returns nil when complete.
func CheckDossier(driver model.Driver, guarantors []model.Guarantor) error {
	if len(guarantors) < RequiredGuarantors {
		return &model.MissingRequirementError{
			Code:   model.ReqGuarantors,
			Detail: fmt.Sprintf("%d guarantor(s) provided, %d required", len(guarantors), RequiredGuarantors),
		}
	}
	if driver.IdentityDocumentURL == "" {
		return &model.MissingRequirementError{
			Code:   model.ReqDriverIdDoc,
			Detail: "driver identity document is missing",
		}
	}
	for _, g := range guarantors {
		if g.IdentityDocumentURL == "" {
			return &model.MissingRequirementError{
				Code:   model.ReqGuarantors,
				Detail: fmt.Sprintf("guarantor %q has no identity document", g.Name),
			}
		}
	}
	return nil
}
