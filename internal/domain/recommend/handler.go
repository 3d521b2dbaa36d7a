package recommend

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pilladdict/checkup/internal/domain/reference"
	"github.com/pilladdict/checkup/pkg/pagination"
)

type Handler struct {
	svc      Analyzer
	products ProductRepository
	catalog  *reference.Catalog
}

func NewHandler(svc Analyzer, products ProductRepository, catalog *reference.Catalog) *Handler {
	return &Handler{svc: svc, products: products, catalog: catalog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/analyze", h.Analyze)
	api.GET("/products", h.ListProducts)
	api.GET("/reference", h.GetReference)
}

// Analyze runs the checkup pipeline for one request body.
func (h *Handler) Analyze(c echo.Context) error {
	var req AnalysisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Fields) == 0 && req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "either fields or text is required")
	}
	res, err := h.svc.Analyze(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

// ListProducts pages through the product catalog.
func (h *Handler) ListProducts(c echo.Context) error {
	pg := pagination.FromContext(c)
	products, total, err := h.products.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(products, total, pg.Limit, pg.Offset))
}

// GetReference returns the loaded reference catalog, read-only.
func (h *Handler) GetReference(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version": h.catalog.Version,
		"fields":  h.catalog.Describe(),
	})
}
