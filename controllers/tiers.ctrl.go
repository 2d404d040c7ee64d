package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/staglieno/soulhub/lib/service"
)

// TiersController : the preservation price table
type TiersController struct {
	svc *service.SoulService
}

func NewTiersController(svc *service.SoulService) *TiersController {
	return &TiersController{svc: svc}
}

type TiersResponseBody struct {
	Tiers []service.Tier `json:"tiers"`
}

func (controller *TiersController) GetTiers(c echo.Context) error {
	return c.JSON(http.StatusOK, &TiersResponseBody{Tiers: service.Tiers})
}
