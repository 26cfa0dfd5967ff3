package definition

import "strings"

// ControllerHeaders is the header contract of the controller sheet.
var ControllerHeaders = []string{"Enable", "Sheet_Name", "Description", "Priority"}

// SheetController is one controller-sheet row enabling or describing one definition sheet.
type SheetController struct {
	Enable      bool
	SheetName   string
	Description string
	Priority    string
	Row         int

	// Filled once the sheet has been loaded.
	TotalTests   int
	EnabledTests int
}

// DecodeController reads a controller row. ok is false for rows without a sheet name.
func DecodeController(row []any, rowNum int) (SheetController, bool) {
	sc := SheetController{
		Enable:      IsTruthy(Cell(row, 0)),
		SheetName:   Cell(row, 1),
		Description: Cell(row, 2),
		Priority:    strings.ToUpper(Cell(row, 3)),
		Row:         rowNum,
	}

	return sc, sc.SheetName != ""
}
