package events

const (
	SubjectQueueReset = "queue.pass.reset"

	StreamName   = "QUEUE_ROUTING_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectRoutingAssigned(routingID string) string  { return "queue.routing." + routingID + ".assigned" }
func SubjectRoutingCompleted(routingID string) string { return "queue.routing." + routingID + ".completed" }
func SubjectPassCompleted() string                    { return "queue.pass.completed" }
func SubjectCustomerQueued(customerID string) string  { return "queue.customer." + customerID + ".queued" }
func SubjectCustomerRemoved(customerID string) string { return "queue.customer." + customerID + ".removed" }
func SubjectAgentStatus(agentID string) string        { return "queue.agent." + agentID + ".status" }
