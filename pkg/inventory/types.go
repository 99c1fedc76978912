// Package inventory queries the protected objects of the backup platform:
// virtual machines across hypervisors, Oracle databases and hosts, and
// their recovery points.
package inventory

import "time"

// Hypervisor identifies which virtualization platform a VM lives on.
type Hypervisor string

const (
	HypervisorVSphere Hypervisor = "vsphere"
	HypervisorNutanix Hypervisor = "nutanix"
	HypervisorHyperV  Hypervisor = "hyperv"
)

// DisplayName returns the operator-facing name of the hypervisor.
func (h Hypervisor) DisplayName() string {
	switch h {
	case HypervisorVSphere:
		return "VMware"
	case HypervisorNutanix:
		return "AHV"
	case HypervisorHyperV:
		return "Hyper-V"
	default:
		return string(h)
	}
}

// NamedObject is an id/name pair as returned by the platform for clusters
// and SLA domains.
type NamedObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VirtualMachine is one protected VM, normalized across hypervisors.
type VirtualMachine struct {
	ID          string
	Name        string
	Hypervisor  Hypervisor
	GuestOS     string
	AgentStatus string
	Cluster     NamedObject
	SLADomain   NamedObject
}

// OracleDatabase is one protected Oracle database. Only databases with an
// effective SLA domain are eligible for backup validation.
type OracleDatabase struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Cluster   NamedObject `json:"cluster"`
	SLADomain NamedObject `json:"effectiveSlaDomain"`
}

// OracleHost is a top-level Oracle descendant (host or RAC) eligible as a
// validation target.
type OracleHost struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	ObjectType string      `json:"objectType"`
	Cluster    NamedObject `json:"cluster"`
}

// Snapshot is one recovery point of a protected object.
type Snapshot struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	IsExpired     bool      `json:"isExpired"`
	IsQuarantined bool      `json:"isQuarantined"`
}
