package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauravbhatt9854/Foody/models"
)

func TestMenuManagementPermissions(t *testing.T) {
	a := newAPI(t, "menu1")
	_, studentToken := a.seedUser(t, "stud", models.RoleStudent)
	_, staffToken := a.seedUser(t, "chef", models.RoleStaff)
	_, adminToken := a.seedUser(t, "boss", models.RoleAdmin)

	payload := map[string]interface{}{
		"name":        "Veg Thali",
		"description": "Rice, dal, two sabzis and roti",
		"price":       7.50,
		"category":    "lunch",
	}

	w := a.request(t, http.MethodPost, "/api/menu", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.request(t, http.MethodPost, "/api/menu", studentToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.request(t, http.MethodPost, "/api/menu", staffToken, payload)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.MenuItem
	decodeData(t, w, &created)
	assert.True(t, created.IsAvailable)
	assert.Equal(t, 15, created.PreparationTime, "preparation time defaults when omitted")

	itemPath := fmt.Sprintf("/api/menu/%d", created.ID)

	// Browsing is public.
	w = a.request(t, http.MethodGet, itemPath, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Availability toggle is the staff way to pull an item off sale.
	w = a.request(t, http.MethodPatch, itemPath+"/availability", staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled models.MenuItem
	decodeData(t, w, &toggled)
	assert.False(t, toggled.IsAvailable)

	// Deletion is admin only.
	w = a.request(t, http.MethodDelete, itemPath, staffToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.request(t, http.MethodDelete, itemPath, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.request(t, http.MethodGet, itemPath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMenuFiltersAndValidation(t *testing.T) {
	a := newAPI(t, "menu2")
	a.seedMenuItem(t, "Masala Dosa", 8.99, 15)
	a.seedMenuItem(t, "Filter Coffee", 2.00, 5)
	cheap := a.seedMenuItem(t, "Plain Dosa", 5.00, 10)
	require.NoError(t, a.DB.Model(cheap).Update("is_available", false).Error)

	var listing struct {
		MenuItems []models.MenuItem `json:"menu_items"`
		Pagination struct {
			TotalItems int64 `json:"total_items"`
		} `json:"pagination"`
	}

	w := a.request(t, http.MethodGet, "/api/menu", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	assert.Len(t, listing.MenuItems, 3)
	assert.EqualValues(t, 3, listing.Pagination.TotalItems)

	w = a.request(t, http.MethodGet, "/api/menu?available=true&search=Dosa", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Len(t, listing.MenuItems, 1)
	assert.Equal(t, "Masala Dosa", listing.MenuItems[0].Name)

	w = a.request(t, http.MethodGet, "/api/menu?max_price=3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Len(t, listing.MenuItems, 1)
	assert.Equal(t, "Filter Coffee", listing.MenuItems[0].Name)

	w = a.request(t, http.MethodGet, "/api/menu?category=midnight", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", decodeEnvelope(t, w).Error)
}

func TestCreateMenuItemRejectsBadPayloads(t *testing.T) {
	a := newAPI(t, "menu3")
	_, staffToken := a.seedUser(t, "cook", models.RoleStaff)

	cases := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"short description", map[string]interface{}{
			"name": "X", "description": "short", "price": 1.0, "category": "lunch",
		}},
		{"missing price", map[string]interface{}{
			"name": "Poha", "description": "Flattened rice breakfast", "category": "breakfast",
		}},
		{"negative price", map[string]interface{}{
			"name": "Poha", "description": "Flattened rice breakfast", "price": -1.0, "category": "breakfast",
		}},
		{"unknown category", map[string]interface{}{
			"name": "Poha", "description": "Flattened rice breakfast", "price": 3.0, "category": "brunch",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := a.request(t, http.MethodPost, "/api/menu", staffToken, tc.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
