package models

// DomainStatus classifies the registration/serving state of a domain
type DomainStatus string

const (
	StatusActive       DomainStatus = "active"
	StatusInactive     DomainStatus = "inactive/parked"
	StatusUnregistered DomainStatus = "unregistered"
)

// Label is the three-way threat classification produced by the ML model
type Label string

const (
	LabelSafe       Label = "safe"
	LabelSuspicious Label = "suspicious"
	LabelMalicious  Label = "malicious"
)

// Class indices used by the training corpus and the classifier.
// The index order is part of the model artifact contract and must not change.
const (
	ClassSafe       = 0
	ClassSuspicious = 1
	ClassMalicious  = 2
)

// NumClasses is the number of threat classes the classifier distinguishes
const NumClasses = 3

// LabelForClass maps a classifier class index to its Label
func LabelForClass(class int) Label {
	switch class {
	case ClassSafe:
		return LabelSafe
	case ClassSuspicious:
		return LabelSuspicious
	case ClassMalicious:
		return LabelMalicious
	default:
		return "unknown"
	}
}

// DNSRecordType represents different types of DNS records
type DNSRecordType string

const (
	DNSRecordA     DNSRecordType = "A"
	DNSRecordAAAA  DNSRecordType = "AAAA"
	DNSRecordMX    DNSRecordType = "MX"
	DNSRecordNS    DNSRecordType = "NS"
	DNSRecordTXT   DNSRecordType = "TXT"
	DNSRecordCNAME DNSRecordType = "CNAME"
)

// DNSRecordTypes lists every record type the analyzer queries, in output order
var DNSRecordTypes = []DNSRecordType{
	DNSRecordA, DNSRecordAAAA, DNSRecordMX, DNSRecordNS, DNSRecordTXT, DNSRecordCNAME,
}
