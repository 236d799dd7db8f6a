// Package content resolves which block of CMS content a given
// (service, sub-menu, document-option) selection points at. The public
// detail view and the admin editor both go through this package so the two
// surfaces can never disagree about scoping.
package content

import (
	"errors"

	"kimmigration/pkg/domain"
)

// ErrSubMenuNotFound is returned when a sub-menu id does not exist under the
// service. Callers must surface this rather than fall back to root content.
var ErrSubMenuNotFound = errors.New("sub-menu not found")

// DefaultDocumentOption selects the scope's plain documents field.
const DefaultDocumentOption = "default"

// Scope is the unit at which content fields are defined: either a service's
// root block or one of its sub-menus. Fields are scope-local; nothing is
// inherited from the root when a sub-menu is active.
type Scope struct {
	ServiceID string
	SubMenuID string // empty for the root scope
	Title     string

	Target          string
	Documents       string
	DocumentOptions []domain.DocumentOption
	Reference       string
	ContentBody     string
	Procedure       string
}

// Root reports whether the scope is the service's root content block.
func (s Scope) Root() bool { return s.SubMenuID == "" }

// ResolveScope resolves a service plus optional sub-menu id to one scope.
func ResolveScope(svc domain.ServiceContent, subMenuID string) (Scope, error) {
	if subMenuID == "" {
		return Scope{
			ServiceID:       svc.ID,
			Target:          svc.Target,
			Documents:       svc.Documents,
			DocumentOptions: svc.DocumentOptions,
			Reference:       svc.Reference,
			ContentBody:     svc.ContentBody,
			Procedure:       svc.Procedure,
		}, nil
	}
	for _, sub := range svc.SubMenus {
		if sub.ID == subMenuID {
			return Scope{
				ServiceID:       svc.ID,
				SubMenuID:       sub.ID,
				Title:           sub.Title,
				Target:          sub.Target,
				Documents:       sub.Documents,
				DocumentOptions: sub.DocumentOptions,
				Reference:       sub.Reference,
				ContentBody:     sub.ContentBody,
				Procedure:       sub.Procedure,
			}, nil
		}
	}
	return Scope{}, ErrSubMenuNotFound
}

// DocumentsFor returns the required-documents text for the selected option.
// "default" (or empty) and unknown values both yield the scope's plain
// documents field; a known value yields that option's content.
func DocumentsFor(scope Scope, optionValue string) string {
	if optionValue == "" || optionValue == DefaultDocumentOption {
		return scope.Documents
	}
	for _, opt := range scope.DocumentOptions {
		if opt.Value == optionValue {
			return opt.Content
		}
	}
	return scope.Documents
}

// ApplyScope writes an edited scope back into the service content. Root
// edits touch only the root fields; sub-menu edits replace only the matching
// entry in SubMenus. Title/description of a sub-menu are preserved unless
// the scope carries a new title.
func ApplyScope(svc domain.ServiceContent, scope Scope) (domain.ServiceContent, error) {
	if scope.Root() {
		svc.Target = scope.Target
		svc.Documents = scope.Documents
		svc.DocumentOptions = scope.DocumentOptions
		svc.Reference = scope.Reference
		svc.ContentBody = scope.ContentBody
		svc.Procedure = scope.Procedure
		return svc, nil
	}
	for i, sub := range svc.SubMenus {
		if sub.ID != scope.SubMenuID {
			continue
		}
		sub.Target = scope.Target
		sub.Documents = scope.Documents
		sub.DocumentOptions = scope.DocumentOptions
		sub.Reference = scope.Reference
		sub.ContentBody = scope.ContentBody
		sub.Procedure = scope.Procedure
		if scope.Title != "" {
			sub.Title = scope.Title
		}
		updated := make([]domain.SubMenuContent, len(svc.SubMenus))
		copy(updated, svc.SubMenus)
		updated[i] = sub
		svc.SubMenus = updated
		return svc, nil
	}
	return svc, ErrSubMenuNotFound
}
