package addressControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/apperrors"
	"github.com/coderking2705/storefront-api/middleware"
	"github.com/coderking2705/storefront-api/models"
)

type AddressInput struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country" binding:"required"`
}

// Selection picks an existing address by id or creates one inline.
type Selection struct {
	AddressID uint          `json:"address_id"`
	Inline    *AddressInput `json:"address"`
	IsDefault bool          `json:"is_default"`
}

// Resolve turns a selection into a concrete address row owned by the given
// user. It never returns an address belonging to someone else. Runs inside
// the caller's transaction so default-flag changes roll back with it.
func Resolve(tx *gorm.DB, userID string, sel Selection) (*models.Address, error) {
	if sel.AddressID != 0 {
		var address models.Address
		err := tx.Where("id = ? AND user_id = ?", sel.AddressID, userID).First(&address).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.InvalidAddressError{AddressID: sel.AddressID}
		}
		if err != nil {
			return nil, err
		}
		return &address, nil
	}
	if sel.Inline == nil {
		return nil, &apperrors.InvalidAddressError{}
	}
	return create(tx, userID, *sel.Inline, sel.IsDefault)
}

func create(tx *gorm.DB, userID string, input AddressInput, isDefault bool) (*models.Address, error) {
	// Unset-then-set keeps the one-default-per-user invariant.
	if isDefault {
		if err := tx.Model(&models.Address{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; err != nil {
			return nil, err
		}
	}
	address := models.Address{
		UserID:     userID,
		FullName:   input.FullName,
		Phone:      input.Phone,
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		Region:     input.Region,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		IsDefault:  isDefault,
	}
	if err := tx.Create(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// -------- Handlers --------

// GET /user/addresses
func ListAddresses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var addresses []models.Address
		if err := db.Where("user_id = ?", middleware.UserID(c)).
			Order("is_default DESC, created_at DESC").
			Find(&addresses).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

// POST /user/addresses
func CreateAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			AddressInput
			IsDefault bool `json:"is_default"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		var address *models.Address
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			address, err = create(tx, middleware.UserID(c), input.AddressInput, input.IsDefault)
			return err
		})
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, address)
	}
}

// DELETE /user/addresses/:addressID
func DeleteAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := db.Where("id = ? AND user_id = ?", c.Param("addressID"), middleware.UserID(c)).
			Delete(&models.Address{})
		if result.Error != nil {
			apperrors.Respond(c, result.Error)
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
	}
}
