package handlers_services

import (
	"net/http"

	"vitrine/internal/models/vtservices"

	"github.com/gin-gonic/gin"
)

type ServicesHandler struct {
	catalog *vtservices.Catalog
}

func NewServicesHandler(catalog *vtservices.Catalog) *ServicesHandler {
	return &ServicesHandler{
		catalog: catalog,
	}
}

// List sert le catalogue des prestations à la SPA
func (sh *ServicesHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": sh.catalog.List()})
}

// Get sert une prestation par son slug
func (sh *ServicesHandler) Get(c *gin.Context) {
	service, ok := sh.catalog.Get(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prestation inconnue"})
		return
	}

	c.JSON(http.StatusOK, service)
}
