package inventoryControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/coderking2705/storefront-api/models"
)

// ExportMovementsToExcel streams the full stock-movement audit trail as an
// xlsx download, optionally filtered to one product.
func ExportMovementsToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Order("created_at ASC, id ASC")
		if pid := c.Query("product_id"); pid != "" {
			query = query.Where("product_id = ?", pid)
		}
		var movements []models.StockMovement
		if err := query.Find(&movements).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stock movements"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("StockMovements")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"ID", "ProductID", "MovementType", "QuantityDelta",
			"PreviousStock", "NewStock", "Reason", "Actor", "CreatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, m := range movements {
			row := sheet.AddRow()
			row.AddCell().SetValue(m.ID)
			row.AddCell().SetValue(m.ProductID)
			row.AddCell().SetValue(string(m.MovementType))
			row.AddCell().SetValue(m.QuantityDelta)
			row.AddCell().SetValue(m.PreviousStock)
			row.AddCell().SetValue(m.NewStock)
			row.AddCell().SetValue(m.Reason)
			row.AddCell().SetValue(m.Actor)
			row.AddCell().SetValue(m.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=stock_movements.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
