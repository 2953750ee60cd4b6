// SPDX-FileCopyrightText: Copyright 2025 SAP SE or an SAP affiliate company
//
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"context"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v3/projects"
	log "github.com/sirupsen/logrus"
)

// IdentityClient gives access to the keystone project API, used by checks
// that provision routers in a scratch project.
type IdentityClient struct {
	*gophercloud.ServiceClient
}

// ConnectToKeystone reuses the provider session of the networking client.
func (n *NeutronClient) ConnectToKeystone() (*IdentityClient, error) {
	serviceClient, err := openstack.NewIdentityV3(n.provider, gophercloud.EndpointOpts{})
	if err != nil {
		return nil, err
	}

	serviceClient.HTTPClient.Timeout = time.Second * 30
	return &IdentityClient{ServiceClient: serviceClient}, nil
}

func (i *IdentityClient) CreateProject(ctx context.Context, name, description string) (*projects.Project, error) {
	project, err := projects.Create(ctx, i.ServiceClient, projects.CreateOpts{
		Name:        name,
		Description: description,
	}).Extract()
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"id":   project.ID,
		"name": project.Name,
	}).Debug("created project")
	return project, nil
}

func (i *IdentityClient) DeleteProject(ctx context.Context, projectID string) error {
	return projects.Delete(ctx, i.ServiceClient, projectID).ExtractErr()
}
