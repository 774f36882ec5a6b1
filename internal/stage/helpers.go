package stage

import "curator/internal/services"

// Invalid builds the error a stage returns when product data breaks a rule.
// It is classified as services.ErrValidation.
func Invalid(stageName, message string, err error) error {
	return services.Wrap(services.ErrValidation, stageName, "execute", message, err)
}

// MissingProduct builds the error a stage returns when its product does not exist.
func MissingProduct(stageName, productID string) error {
	return services.Wrap(services.ErrNotFound, stageName, "load product", "product "+productID+" does not exist", nil)
}
