// Package pricing wires the preprocessing transforms and the random forest
// into the used-car price pipeline.
//
// Training runs, in order: column validation, IQR outlier removal, label
// encoding of the categorical columns, min-max scaling of the nine feature
// columns, a seeded 80/20 split and the forest fit. Inference reuses the
// persisted encoders and scalers unchanged.
package pricing

// Dataset column names.
const (
	ColumnBrand        = "brand"
	ColumnModel        = "model"
	ColumnYear         = "year"
	ColumnTransmission = "transmission"
	ColumnMileage      = "mileage"
	ColumnFuelType     = "fuelType"
	ColumnTax          = "tax"
	ColumnMPG          = "mpg"
	ColumnEngineSize   = "engineSize"
	ColumnPrice        = "price"
)

// FeatureOrder is the fixed order of the model's feature vector.
var FeatureOrder = []string{
	ColumnBrand,
	ColumnModel,
	ColumnYear,
	ColumnTransmission,
	ColumnMileage,
	ColumnFuelType,
	ColumnTax,
	ColumnMPG,
	ColumnEngineSize,
}

// CategoricalColumns are label encoded before scaling.
var CategoricalColumns = []string{ColumnBrand, ColumnModel, ColumnTransmission, ColumnFuelType}

// NumericColumns are read as floats from the input table.
var NumericColumns = []string{ColumnYear, ColumnMileage, ColumnTax, ColumnMPG, ColumnEngineSize, ColumnPrice}

// OutlierColumns are filtered, in this order, before encoding.
var OutlierColumns = []string{ColumnYear, ColumnMileage, ColumnTax, ColumnMPG, ColumnEngineSize, ColumnPrice}

// RequiredColumns lists every column training needs.
func RequiredColumns() []string {
	return append(append([]string(nil), FeatureOrder...), ColumnPrice)
}

// Transmissions lists the transmission labels offered to users.
var Transmissions = []string{"Manual", "Automatic", "Semi-Auto", "Other"}

// Artifact names. Every training run is stored under its own prefix (see
// RunArtifact) and CurrentArtifact names the run readers should load.
const (
	ModelArtifact   = "model/random_forest_regressor.msgpack"
	CurrentArtifact = "CURRENT"
)

// RunArtifact returns the store name of artifact name within run.
func RunArtifact(run, name string) string {
	return "runs/" + run + "/" + name
}

// MappingArtifact names the label mapping of column.
func MappingArtifact(column string) string {
	return "mapping/" + column + "_mapping.txt"
}

// ScalerArtifact names the scaler blob of column.
func ScalerArtifact(column string) string {
	return "scaler/" + column + "_scaler.msgpack"
}
