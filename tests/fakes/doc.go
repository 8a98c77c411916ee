// Package fakes provides test doubles for drdb's secret store clients.
//
// Fakes are manually implemented (not generated) and keep state in memory so
// tests can create, fail, delete and recreate secrets between calls.
//
// Usage:
//
//	client := fakes.NewFakeSecretsManagerClient()
//	client.AddSecretString("orcatest-drdb-host", "aws.postgresrds.host")
//	p, err := providers.NewAWSSecretsManagerProvider(settings,
//	    providers.WithSecretsManagerClient(client))
package fakes
