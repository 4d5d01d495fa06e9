package servicebus

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus connects to an Azure Service Bus namespace. A connection string wins over
// the namespace, which authenticates with the default Azure credential chain.
func NewServiceBus(_ context.Context, namespace, connectionString string) (*azservicebus.Client, error) {
	if connectionString != "" {
		client, err := azservicebus.NewClientFromConnectionString(connectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create service bus client: %w", err)
		}
		return client, nil
	}
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace is not configured")
	}
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	client, err := azservicebus.NewClient(namespace, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("create service bus client: %w", err)
	}
	return client, nil
}
