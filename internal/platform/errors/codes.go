package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Dice errors
	CodeDiceInvalidPool  Code = "DICE_INVALID_POOL"
	CodeDiceExplosionCap Code = "DICE_EXPLOSION_CAP"

	// Combat errors
	CodeCombatInvalidDefinition   Code = "COMBAT_INVALID_DEFINITION"
	CodeCombatInsufficientVoid    Code = "COMBAT_INSUFFICIENT_RESOURCES"
	CodeCombatIntegrity           Code = "COMBAT_INTEGRITY"
	CodeCombatWoundRegression     Code = "COMBAT_WOUND_REGRESSION"
	CodeCombatInvalidConfig       Code = "COMBAT_INVALID_CONFIG"
	CodeCombatUnknownCombatant    Code = "COMBAT_UNKNOWN_COMBATANT"
	CodeCombatDuplicateCombatant  Code = "COMBAT_DUPLICATE_COMBATANT"
	CodeCombatInsufficientSides   Code = "COMBAT_INSUFFICIENT_SIDES"
	CodeCombatMissingPolicy       Code = "COMBAT_MISSING_POLICY"

	// Policy errors
	CodePolicyFault   Code = "POLICY_FAULT"
	CodePolicyUnknown Code = "POLICY_UNKNOWN"

	// Loader errors
	CodeLoaderInvalid Code = "LOADER_INVALID"

	// Storage errors
	CodeStorageNotFound      Code = "STORAGE_NOT_FOUND"
	CodeStorageAlreadyExists Code = "STORAGE_ALREADY_EXISTS"
)
