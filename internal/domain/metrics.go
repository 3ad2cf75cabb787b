package domain

import "time"

type MetricsCollector interface {
	RecordLineDecoded(protocol ProtocolTag)
	RecordLineDropped(protocol ProtocolTag)
	RecordFetch(source string, status string, duration time.Duration)
	RecordSource(vendor string, proxies int)
	RecordMerge(total, unique int)
	RecordGroup(name string, members int)
	RecordWorkerStart(workerID string)
	RecordWorkerStop(workerID string)
}
