package errors

// ErrorCode represents a standardized error code used throughout the core
type ErrorCode string

// Not-found error codes (NOT_FOUND_*)
const (
	UserNotFound     ErrorCode = "NOT_FOUND_001"
	CategoryNotFound ErrorCode = "NOT_FOUND_002"
	ExpenseNotFound  ErrorCode = "NOT_FOUND_003"
	ReceiptNotFound  ErrorCode = "NOT_FOUND_004"
	BlobNotFound     ErrorCode = "NOT_FOUND_005"
)

// Ownership error codes (OWNERSHIP_*)
const (
	CategoryNotOwned ErrorCode = "OWNERSHIP_001"
	ExpenseNotOwned  ErrorCode = "OWNERSHIP_002"
	ReceiptNotOwned  ErrorCode = "OWNERSHIP_003"
)

// Range and validation error codes (RANGE_*, VALIDATION_*)
const (
	InvalidDateRange   ErrorCode = "RANGE_001"
	InvalidAmountRange ErrorCode = "RANGE_002"
	InvalidYear        ErrorCode = "RANGE_003"
	ValidationFailed   ErrorCode = "VALIDATION_001"
)

// Conflict error codes (CONFLICT_*)
const (
	EmailTaken        ErrorCode = "CONFLICT_001"
	CategoryNameTaken ErrorCode = "CONFLICT_002"
	CategoryInUse     ErrorCode = "CONFLICT_003"
)

// Storage error codes (STORAGE_*)
const (
	StorageTransient   ErrorCode = "STORAGE_001"
	PartialConsistency ErrorCode = "STORAGE_002"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	UserNotFound:     "User not found",
	CategoryNotFound: "Category not found",
	ExpenseNotFound:  "Expense not found",
	ReceiptNotFound:  "Receipt not found",
	BlobNotFound:     "Receipt content not found",

	CategoryNotOwned: "Category does not belong to the user",
	ExpenseNotOwned:  "Expense does not belong to the user",
	ReceiptNotOwned:  "Receipt does not belong to the user",

	InvalidDateRange:   "From date cannot be after to date",
	InvalidAmountRange: "Minimum amount cannot be greater than maximum amount",
	InvalidYear:        "Year is out of the allowed range",
	ValidationFailed:   "Validation failed",

	EmailTaken:        "An account with this email already exists",
	CategoryNameTaken: "A category with this name already exists",
	CategoryInUse:     "Category is referenced by existing expenses",

	StorageTransient:   "Storage temporarily unavailable",
	PartialConsistency: "Cross-store operation completed partially",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
