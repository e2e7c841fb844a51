package content

import (
	"context"
	"net/http"

	"github.com/averroes-labs/storefront-gateway/api/responses"
	"github.com/averroes-labs/storefront-gateway/api/validators"
	contentsvc "github.com/averroes-labs/storefront-gateway/internal/content"
	pkgerrors "github.com/averroes-labs/storefront-gateway/pkg/errors"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
)

type Service interface {
	Banners(ctx context.Context) ([]contentsvc.Banner, error)
	Overviews(ctx context.Context) ([]contentsvc.Overview, error)
	About(ctx context.Context) (*contentsvc.AboutPage, error)
	Contacts(ctx context.Context) (*contentsvc.ContactInfo, error)
	SubmitContact(ctx context.Context, params contentsvc.SubmissionParams) error
}

type ContactSubmissionRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=4000"`
}

func Banners(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}
		banners, err := svc.Banners(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, banners)
	}
}

func Overviews(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}
		overviews, err := svc.Overviews(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overviews)
	}
}

func About(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}
		page, err := svc.About(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func Contacts(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}
		info, err := svc.Contacts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

func ContactSubmit(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		var payload ContactSubmissionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SubmitContact(r.Context(), contentsvc.SubmissionParams{
			Name:    payload.Name,
			Email:   payload.Email,
			Message: payload.Message,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "received"})
	}
}
