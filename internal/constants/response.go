package constants

// BuildSuccessResponse builds the {success, message, data} envelope.
func BuildSuccessResponse(message string, data any) map[string]any {
	response := map[string]any{
		"success": true,
		"message": message,
	}

	if data != nil {
		response["data"] = data
	}

	return response
}

// BuildErrorResponse builds the {success, message, error} envelope. details is
// omitted when nil; callers decide whether details may leave the process.
func BuildErrorResponse(message string, details any) map[string]any {
	response := map[string]any{
		"success": false,
		"message": message,
	}

	if details != nil {
		response["error"] = details
	}

	return response
}
