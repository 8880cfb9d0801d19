package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
)

// Directory serves the doctor and service catalogs.
type Directory interface {
	ListDoctors(ctx context.Context) ([]domain.Doctor, error)
	CreateDoctor(ctx context.Context, name, specialty string) (domain.Doctor, error)
	ListServices(ctx context.Context) ([]domain.Service, error)
	CreateService(ctx context.Context, name string, durationMin int) (domain.Service, error)
}

type doctorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type serviceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DurationMin int    `json:"durationMin"`
}

func HandleListDoctors(dir Directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		doctors, err := dir.ListDoctors(c.Request().Context())
		if err != nil {
			return writeDomainError(c, err)
		}
		out := make([]doctorResponse, 0, len(doctors))
		for _, d := range doctors {
			out = append(out, doctorResponse{ID: d.ID, Name: d.Name, Specialty: d.Specialty})
		}
		return c.JSON(http.StatusOK, out)
	}
}

type createDoctorRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

func HandleCreateDoctor(dir Directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createDoctorRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}
		doctor, err := dir.CreateDoctor(c.Request().Context(), req.Name, req.Specialty)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusCreated, doctorResponse{ID: doctor.ID, Name: doctor.Name, Specialty: doctor.Specialty})
	}
}

func HandleListServices(dir Directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		services, err := dir.ListServices(c.Request().Context())
		if err != nil {
			return writeDomainError(c, err)
		}
		out := make([]serviceResponse, 0, len(services))
		for _, s := range services {
			out = append(out, serviceResponse{ID: s.ID, Name: s.Name, DurationMin: s.DurationMin})
		}
		return c.JSON(http.StatusOK, out)
	}
}

type createServiceRequest struct {
	Name        string `json:"name"`
	DurationMin int    `json:"durationMin"`
}

func HandleCreateService(dir Directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createServiceRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}
		svc, err := dir.CreateService(c.Request().Context(), req.Name, req.DurationMin)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusCreated, serviceResponse{ID: svc.ID, Name: svc.Name, DurationMin: svc.DurationMin})
	}
}
