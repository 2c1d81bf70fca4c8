package constants

// Results file defaults. The file name is kept from the predecessor tooling
// so downstream report consumers keep working unchanged.
const (
	DefaultResultsFileName = "ps_HyperV_GetVMStorageLocationResults.csv"
	CSVHeader              = "VMName,ControllerType,ClusterStorageDiskId,Path"
)

// Cluster volume id derivation. Disk paths following the
// C:\ClusterStorage\Volume<N>\... convention carry the volume digit at this
// zero-based rune offset (character position 25).
const (
	VolumeIDOffset      = 24
	VolumeIDUnavailable = "n/a"
)

// Operator progress and placeholder text.
const (
	NodeCheckPrefix   = "Checking cluster node "
	NodeFailurePrefix = "Unable to retrieve data for cluster node "
)

// Audit database defaults.
const DefaultAuditDBFileName = "vmstor.db"

// Environment variable prefix for configuration.
const EnvPrefix = "VMSTOR"
