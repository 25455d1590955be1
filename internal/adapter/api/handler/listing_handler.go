package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/usecase"
	"foodshare/pkg/response"
	"foodshare/pkg/utils"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

func (h *ListingHandler) page(c echo.Context, result *usecase.ListingResult, p utils.PaginationParams) error {
	items := utils.Page(result.Listings, p)
	return response.Paginated(c, items, int64(len(result.Listings)), p.Page, p.PageSize, result.Degraded)
}

// ListListings returns available listings, newest first. The response is
// marked degraded when it comes from the fallback dataset.
func (h *ListingHandler) ListListings(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	result, err := h.listingUseCase.List(c.Request().Context(), c.QueryParam("category"), 0)
	if err != nil {
		return response.Error(c, err)
	}

	return h.page(c, result, p)
}

func (h *ListingHandler) SearchListings(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	result, err := h.listingUseCase.Search(c.Request().Context(), c.QueryParam("q"), 0)
	if err != nil {
		return response.Error(c, err)
	}

	return h.page(c, result, p)
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	listing, err := h.listingUseCase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}
