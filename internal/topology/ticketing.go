package topology

// Component names of the default ticketing deployment
const (
	Internet                  = "internet"
	LoadBalancer              = "alb"
	LoadBalancerSG            = "alb_sg"
	InternetGateway           = "igw"
	PublicRouteTable          = "public_rt"
	NATGateway                = "nat"
	ServiceSG                 = "ecs_sg"
	PurchaseService           = "purchase_service"
	MessagePersistenceService = "message_persistence_service"
	QueryService              = "query_service"
	PrivateRouteTable         = "private_rt"
	RedisSG                   = "redis_sg"
	Redis                     = "redis"
	TicketTopic               = "sns_ticket_events"
	TicketQueue               = "sqs_ticket_sqs"
	DatabaseSG                = "rds_sg"
	Database                  = "aurora"
)

// Default returns the network boundaries of the ticketing deployment the load
// generator targets: traffic enters through the load balancer, purchases are
// held in Redis and fanned out through SNS/SQS to the persistence service, and
// queries read from Aurora.
func Default(region string) *Diagram {
	d := New("Ticketing - Network Boundaries (" + region + ")")

	internet := d.Add(Internet, "Internet", KindExternal)

	igw := d.Add(InternetGateway, "IGW", KindNetwork)
	publicRT := d.Add(PublicRouteTable, "Public RT\n0.0.0.0/0 → IGW", KindNetwork)
	albSG := d.Add(LoadBalancerSG, "ALB-SG\n80/443 from 0.0.0.0/0", KindSecurityGroup)
	alb := d.Add(LoadBalancer, "Application Load Balancer :80/:443", KindLoadBalancer)
	nat := d.Add(NATGateway, "NAT Gateway", KindNetwork)

	ecsSG := d.Add(ServiceSG, "ECS-SG\n:8080 from ALB-SG", KindSecurityGroup)
	purchase := d.Add(PurchaseService, "PurchaseService", KindService)
	persistence := d.Add(MessagePersistenceService, "MessagePersistenceService", KindService)
	query := d.Add(QueryService, "QueryService", KindService)
	privateRT := d.Add(PrivateRouteTable, "Private RT\n0.0.0.0/0 → NAT", KindNetwork)

	redisSG := d.Add(RedisSG, "REDIS-SG\n:6379 from ECS-SG", KindSecurityGroup)
	redis := d.Add(Redis, "Redis :6379\n(single node)", KindCache)
	sns := d.Add(TicketTopic, "SNS Topic: ticket-events", KindTopic)
	sqs := d.Add(TicketQueue, "SQS Queue: ticket-sqs", KindQueue)
	rdsSG := d.Add(DatabaseSG, "RDS-SG\n:3306 from ECS-SG", KindSecurityGroup)
	aurora := d.Add(Database, "Aurora MySQL :3306\n(single instance)", KindDatabase)

	vpc := d.Cluster("region", "Region: "+region).
		Cluster("account", "AWS Account").
		Cluster("vpc", "VPC: ticketing VPC 10.0.0.0/16")

	vpc.Cluster("public_subnet", "Public Subnet (ALB + NAT)").
		Place(igw, publicRT, albSG, alb, nat)

	private := vpc.Cluster("private_subnet", "Private Subnet (ECS)")
	private.Place(ecsSG)
	services := private.Cluster("services", "ECS Fargate Services (:8080)")
	services.Place(purchase, persistence, query, privateRT)
	backend := services.Cluster("backend", "Backend Data & Messaging")
	backend.Place(redisSG, redis, rdsSG, aurora)
	backend.Cluster("messaging", "Messaging").Place(sns, sqs)

	// Request path
	d.Connect(Link{F: internet, T: albSG, Label: "HTTPS 443"})
	d.Connect(Link{F: albSG, T: alb})
	d.Connect(Link{F: alb, T: ecsSG, Label: "HTTP 8080"})
	d.Connect(Link{F: ecsSG, T: persistence, Label: "HTTP/8080 → MsgPersist"})
	d.Connect(Link{F: ecsSG, T: purchase, Label: "HTTP/8080 → Purchase"})
	d.Connect(Link{F: ecsSG, T: query, Label: "HTTP/8080 → Query"})

	// Data
	d.Connect(Link{F: query, T: rdsSG, Label: "TCP/3306 → RDS", Color: "green"})
	d.Connect(Link{F: persistence, T: rdsSG, Label: "TCP/3306 → RDS", Color: "orange"})
	d.Connect(Link{F: rdsSG, T: aurora})
	d.Connect(Link{F: purchase, T: redisSG, Label: "TCP/6379 → Redis", Color: "blue"})
	d.Connect(Link{F: redisSG, T: redis})

	// Messaging
	d.Connect(Link{F: purchase, T: sns, Label: "Publish → SNS", Color: "red"})
	d.Connect(Link{F: sns, T: sqs, Label: "Fan-out → SQS", Color: "red"})
	d.Connect(Link{F: sqs, T: persistence, Label: "Consume → MsgPersist", Color: "red"})

	// Routing plane
	d.Connect(Link{F: internet, T: igw, Style: "dotted"})
	d.Connect(Link{F: igw, T: publicRT, Style: "dotted"})
	d.Connect(Link{F: privateRT, T: nat, Style: "dotted"})
	d.Connect(Link{F: nat, T: igw, Style: "dotted"})

	return d
}
